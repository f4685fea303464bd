// Package api provides the HTTP server for RELOOK.
// It exposes the capture flow, progression state and the cosmetic store
// as a JSON API, plus a websocket feed of live notifications.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/relook-app/relook/internal/app/inbox"
	"github.com/relook-app/relook/internal/app/shop"
	"github.com/relook-app/relook/internal/domain"
	"github.com/relook-app/relook/internal/health"
	"github.com/relook-app/relook/internal/infra/metrics"
)

// NotificationStore lists and acknowledges stored notifications.
type NotificationStore interface {
	ListNotifications(limit int, pendingOnly bool) ([]domain.Notification, error)
	MarkNotificationShown(id int64) error
	NotificationCountSince(t time.Time) (int, error)
}

// Server is the RELOOK HTTP API server.
type Server struct {
	inbox          *inbox.Service
	shop           *shop.Service
	notifications  NotificationStore
	health         *health.Checker
	feed           *Feed
	corsOrigins    []string
	metricsEnabled bool
	version        string
	now            func() time.Time
	log            *zap.Logger
}

// NewServer creates a new API server.
func NewServer(in *inbox.Service, store *shop.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{inbox: in, shop: store, corsOrigins: []string{"*"}, version: "dev", now: time.Now, log: log}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetNotifications sets the notification history store.
func (s *Server) SetNotifications(n NotificationStore) { s.notifications = n }

// SetHealth sets the health checker reported by /api/health.
func (s *Server) SetHealth(h *health.Checker) { s.health = h }

// SetFeed sets the live notification feed.
func (s *Server) SetFeed(f *Feed) { s.feed = f }

// SetCORSOrigins replaces the allowed CORS origins.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// SetClock sets the time source used for "today" counts.
func (s *Server) SetClock(now func() time.Time) { s.now = now }

// SetVersion sets the version reported by /api/version.
func (s *Server) SetVersion(v string) { s.version = v }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(s.cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
		})
		r.Get("/health", s.handleHealth)

		// Capture flow
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(2 * time.Minute))
			r.Post("/capture", s.handleCapture)
		})
		r.Post("/undo", s.handleUndo)

		// Library
		r.Get("/state", s.handleState)
		r.Get("/export", s.handleExport)
		r.Get("/items", s.handleItems)
		r.Delete("/items/{id}", s.handleDeleteItem)
		r.Post("/items/{id}/organize", s.handleOrganize)
		r.Get("/decks", s.handleDecks)
		r.Post("/decks", s.handleCreateDeck)
		r.Get("/reminders", s.handleReminders)
		r.Post("/reminders/{id}/complete", s.handleCompleteReminder)

		// Progression
		r.Get("/rewards", s.handleRewards)
		r.Get("/missions", s.handleMissions)
		r.Get("/achievements", s.handleAchievements)
		r.Post("/mysterybox/claim", s.handleClaimMysteryBox)

		// Cosmetic store
		r.Get("/shop", s.handleShop)
		r.Get("/shop/purchases", s.handlePurchases)
		r.Post("/shop/purchase", s.handlePurchase)
		r.Post("/shop/equip", s.handleEquip)

		// Notifications
		if s.notifications != nil {
			r.Get("/notifications", s.handleNotifications)
			r.Post("/notifications/{id}/shown", s.handleNotificationShown)
		}
		if s.feed != nil {
			r.Handle("/notifications/live", s.feed)
		}
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errorType(status),
		},
	})
}

// writeDomainError maps a domain error to its HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrDeckNotFound),
		errors.Is(err, domain.ErrReminderNotFound),
		errors.Is(err, domain.ErrCosmeticNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDeckExists),
		errors.Is(err, domain.ErrAlreadyInDeck),
		errors.Is(err, domain.ErrReminderDone),
		errors.Is(err, domain.ErrNothingToUndo),
		errors.Is(err, domain.ErrMysteryBoxUnavailable),
		errors.Is(err, domain.ErrCosmeticOwned),
		errors.Is(err, domain.ErrCosmeticNotOwned),
		errors.Is(err, domain.ErrInsufficientXP):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyCapture),
		errors.Is(err, domain.ErrDeckTitle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadRequest:
		return "invalid_request"
	default:
		return "error"
	}
}

// cors adds CORS headers for the configured origins.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	for _, o := range s.corsOrigins {
		if o == "*" {
			return "*"
		}
		if origin != "" && o == origin {
			return origin
		}
	}
	return ""
}

// CheckOrigin reports whether a websocket upgrade comes from an allowed origin.
func (s *Server) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.allowOrigin(origin) != ""
}

// observe records request latency by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.APIRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		if status >= http.StatusInternalServerError {
			s.log.Warn("request failed",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}
	})
}
