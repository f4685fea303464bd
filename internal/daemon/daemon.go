package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relook-app/relook/internal/api"
	"github.com/relook-app/relook/internal/app/engagement"
	"github.com/relook-app/relook/internal/app/inbox"
	"github.com/relook-app/relook/internal/app/shop"
	"github.com/relook-app/relook/internal/domain"
	"github.com/relook-app/relook/internal/health"
	"github.com/relook-app/relook/internal/infra/classifier"
	"github.com/relook-app/relook/internal/infra/metrics"
	"github.com/relook-app/relook/internal/infra/sqlite"
	"github.com/relook-app/relook/internal/infra/timer"
)

// Daemon is the core RELOOK runtime. It wires together all services.
type Daemon struct {
	Config     Config
	Log        *zap.Logger
	DB         *sqlite.DB
	Clock      *timer.Clock
	Engine     *engagement.Coordinator
	Classifier domain.Classifier
	Inbox      *inbox.Service
	Shop       *shop.Service
	Feed       *api.Feed
	Health     *health.Checker
	Server     *api.Server

	ownsLog bool
	cancel  context.CancelFunc
}

// NewWithConfig creates a Daemon with the given configuration, building
// its logger from cfg.Logging.
func NewWithConfig(cfg Config) (*Daemon, error) {
	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	d, err := NewWithLogger(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	d.ownsLog = true
	return d, nil
}

// NewWithLogger creates a Daemon that logs to logger.
func NewWithLogger(cfg Config, logger *zap.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock, err := timer.LoadClock(cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	// Open SQLite
	dataDir := cfg.DataDir()
	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	state, err := db.LoadState()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}

	// Classifier: Gemini when credentials exist, otherwise captures are
	// saved unclassified.
	cls, err := classifier.New(context.Background(), classifier.Config{
		Provider: cfg.Classifier.Provider,
		APIKey:   cfg.Classifier.APIKey,
		Model:    cfg.Classifier.Model,
	}, logger.Named("classifier"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	d := &Daemon{
		Config:     cfg,
		Log:        logger,
		DB:         db,
		Clock:      clock,
		Classifier: cls,
	}

	// Notifications are counted, stored, and streamed to live clients
	// outside quiet hours.
	d.Feed = api.NewFeed(nil, logger.Named("feed"))
	sinks := engagement.MultiNotifier{
		metrics.NotificationCounter{},
		engagement.QuietHours{
			Next:  d.Feed,
			Start: cfg.App.QuietStart,
			End:   cfg.App.QuietEnd,
			Now:   clock.Now,
		},
	}
	var store domain.StateStore
	if !cfg.App.Preview {
		sinks = append(sinks, sqlite.NewNotificationLog(db, logger.Named("notifications")))
		store = db
	}

	d.Engine = engagement.NewCoordinator(state, engagement.Config{
		UndoWindow:  parseDuration(cfg.App.UndoWindow, engagement.DefaultConfig().UndoWindow),
		ComboWindow: parseDuration(cfg.App.ComboWindow, engagement.DefaultConfig().ComboWindow),
	}, engagement.Deps{
		Clock:    clock,
		Notifier: sinks,
		Logger:   logger.Named("engine"),
	})

	d.Inbox = inbox.NewService(d.Engine, cls, store, inbox.Options{
		Preview:         cfg.App.Preview,
		ClassifyTimeout: parseDuration(cfg.Classifier.Timeout, inbox.DefaultClassifyTimeout),
		Logger:          logger.Named("inbox"),
	})

	var ledger shop.Ledger
	if !cfg.App.Preview {
		ledger = db
	}
	d.Shop = shop.NewService(d.Inbox, ledger, nil, logger.Named("shop"))

	// Health checker
	var classifierReady func(ctx context.Context) error
	if cfg.Classifier.Provider == classifier.ProviderGemini {
		classifierReady = func(ctx context.Context) error {
			if _, ok := cls.(classifier.Unavailable); ok {
				return domain.ErrClassifierUnavailable
			}
			return nil
		}
	}
	d.Health = health.NewChecker(db, dataDir, classifierReady, logger.Named("health"))
	d.Health.SetInterval(parseDuration(cfg.App.HealthInterval, time.Minute))

	// API server
	srv := api.NewServer(d.Inbox, d.Shop, logger.Named("api"))
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	srv.SetNotifications(db)
	srv.SetHealth(d.Health)
	srv.SetFeed(d.Feed)
	srv.SetClock(clock.Now)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	// A fresh day may have been drawn while loading.
	if err := d.Inbox.Persist(); err != nil {
		logger.Warn("persist initial state", zap.Error(err))
	}
	snap := d.Engine.Snapshot()
	metrics.Level.Set(float64(snap.Rewards.Level))
	metrics.Streak.Set(float64(snap.Rewards.Streak))
	metrics.ItemsStored.Set(float64(len(snap.Items)))

	logger.Debug("daemon ready",
		zap.String("data_dir", dataDir),
		zap.Bool("preview", cfg.App.Preview),
		zap.Int("items", len(snap.Items)))
	return d, nil
}

// Serve starts the HTTP server and background loops and blocks until
// ctx is done or the process receives SIGINT/SIGTERM.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           d.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute, // classifier calls can be slow
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.Log.Info("serving", zap.String("addr", "http://"+addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		d.Feed.Close()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error { return d.Health.Run(gctx) })

	g.Go(func() error {
		return d.Inbox.RunRollover(gctx, parseDuration(d.Config.App.RolloverCheck, time.Minute))
	})

	err := g.Wait()
	if perr := d.Inbox.Persist(); perr != nil {
		d.Log.Error("persist on shutdown", zap.Error(perr))
	}
	d.Log.Info("stopped")
	return err
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Inbox != nil {
		if err := d.Inbox.Persist(); err != nil {
			d.Log.Error("persist on close", zap.Error(err))
		}
	}
	if d.Feed != nil {
		d.Feed.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.ownsLog {
		_ = d.Log.Sync()
	}
}
