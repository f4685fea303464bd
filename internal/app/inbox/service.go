// Package inbox is the capture flow around the progression engine:
// classify raw input, hand the draft to the engine, persist the snapshot.
package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/relook-app/relook/internal/app/engagement"
	"github.com/relook-app/relook/internal/domain"
	"github.com/relook-app/relook/internal/infra/metrics"
)

// DefaultClassifyTimeout bounds a single classifier call.
const DefaultClassifyTimeout = 30 * time.Second

// Options configures the service.
type Options struct {
	// Preview keeps every change in memory only.
	Preview         bool
	ClassifyTimeout time.Duration
	Logger          *zap.Logger
}

// Service runs user actions against the engine and saves the result.
type Service struct {
	engine     *engagement.Coordinator
	classifier domain.Classifier
	store      domain.StateStore
	opts       Options
	log        *zap.Logger

	saveMu sync.Mutex
}

// NewService wires the capture flow. store may be nil in preview mode.
func NewService(engine *engagement.Coordinator, classifier domain.Classifier, store domain.StateStore, opts Options) *Service {
	if opts.ClassifyTimeout <= 0 {
		opts.ClassifyTimeout = DefaultClassifyTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if store == nil {
		opts.Preview = true
	}
	return &Service{
		engine:     engine,
		classifier: classifier,
		store:      store,
		opts:       opts,
		log:        opts.Logger,
	}
}

// CaptureResult is what a capture produced.
type CaptureResult struct {
	Item       domain.Item        `json:"item"`
	Effects    engagement.Effects `json:"effects"`
	Classified bool               `json:"classified"`
}

// Capture classifies in and saves it as a new item. A classifier failure
// never fails the capture; the raw input is saved as a Note instead.
func (s *Service) Capture(ctx context.Context, in domain.Input) (CaptureResult, error) {
	if strings.TrimSpace(in.Text) == "" && len(in.Data) == 0 {
		return CaptureResult{}, domain.ErrEmptyCapture
	}

	draft, classified := s.classify(ctx, in)
	item, eff, err := s.engine.Capture(draft)
	if err != nil {
		return CaptureResult{}, err
	}

	metrics.CapturesTotal.WithLabelValues(string(item.ContentType), string(item.Source)).Inc()
	s.record(eff)
	s.persist()
	return CaptureResult{Item: item, Effects: eff, Classified: classified}, nil
}

func (s *Service) classify(ctx context.Context, in domain.Input) (domain.Draft, bool) {
	fallback := rawDraft(in)
	if s.classifier == nil {
		return fallback, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ClassifyTimeout)
	defer cancel()

	start := time.Now()
	c, err := s.classifier.Classify(ctx, in)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, domain.ErrClassifierUnavailable):
			reason = "unavailable"
			s.log.Info("classifier unavailable, saving as note")
		case errors.Is(err, context.DeadlineExceeded):
			reason = "timeout"
			s.log.Warn("classification timed out, saving as note", zap.Duration("timeout", s.opts.ClassifyTimeout))
		default:
			s.log.Warn("classification failed, saving as note", zap.Error(err))
		}
		metrics.ClassifyLatency.WithLabelValues("error").Observe(elapsed)
		metrics.ClassifyFailures.WithLabelValues(reason).Inc()
		return fallback, false
	}
	metrics.ClassifyLatency.WithLabelValues("ok").Observe(elapsed)

	d := domain.Draft{
		ContentType: c.ContentType,
		Title:       strings.TrimSpace(c.Title),
		Summary:     c.Summary,
		Body:        in.Text,
		Tags:        c.Tags,
		Source:      in.Kind(),
		Payload:     c.Payload,
	}
	if d.ContentType == "" {
		d.ContentType = domain.ContentNote
	}
	if d.Payload != nil && d.Payload.ContentType() != d.ContentType {
		s.log.Debug("dropping mismatched payload",
			zap.String("type", string(d.ContentType)),
			zap.String("payload", string(d.Payload.ContentType())))
		d.Payload = nil
	}
	if d.Title == "" {
		d.Title = fallback.Title
	}
	return d, true
}

// rawDraft is the unclassified form of an input.
func rawDraft(in domain.Input) domain.Draft {
	d := domain.Draft{
		ContentType: domain.ContentNote,
		Body:        in.Text,
		Source:      in.Kind(),
	}
	switch d.Source {
	case domain.SourceImage:
		d.Title = "Screenshot"
	case domain.SourceAudio:
		d.Title = "Voice memo"
	default:
		d.Title = titleFrom(in.Text)
	}
	return d
}

func titleFrom(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	if r := []rune(line); len(r) > 60 {
		return strings.TrimSpace(string(r[:57])) + "..."
	}
	return line
}

// ─── Other actions ──────────────────────────────────────────────────────────

// Undo reverts the last capture while its window is open.
func (s *Service) Undo() error {
	if err := s.engine.Undo(); err != nil {
		return err
	}
	metrics.UndosTotal.Inc()
	s.persist()
	return nil
}

// CreateDeck adds a user deck.
func (s *Service) CreateDeck(title string) (domain.Deck, engagement.Effects, error) {
	d, eff, err := s.engine.CreateDeck(title)
	if err != nil {
		return domain.Deck{}, engagement.Effects{}, err
	}
	s.record(eff)
	s.persist()
	return d, eff, nil
}

// OrganizeItem files an item into a deck.
func (s *Service) OrganizeItem(itemID, deckID string) (engagement.Effects, error) {
	eff, err := s.engine.OrganizeItem(itemID, deckID)
	if err != nil {
		return engagement.Effects{}, err
	}
	s.record(eff)
	s.persist()
	return eff, nil
}

// CompleteReminder marks a reminder done.
func (s *Service) CompleteReminder(id string) (engagement.Effects, error) {
	eff, err := s.engine.CompleteReminder(id)
	if err != nil {
		return engagement.Effects{}, err
	}
	s.record(eff)
	s.persist()
	return eff, nil
}

// DeleteItem removes an item.
func (s *Service) DeleteItem(id string) error {
	if err := s.engine.DeleteItem(id); err != nil {
		return err
	}
	s.persist()
	return nil
}

// ClaimMysteryBox opens today's box.
func (s *Service) ClaimMysteryBox() (int, engagement.Effects, error) {
	bonus, eff, err := s.engine.ClaimMysteryBox()
	if err != nil {
		return 0, engagement.Effects{}, err
	}
	s.record(eff)
	s.persist()
	return bonus, eff, nil
}

// Update runs fn under the engine lock and persists on success. The store
// uses it for purchases and equips.
func (s *Service) Update(fn func(st *domain.State) error) error {
	var spent int
	err := s.engine.Update(func(st *domain.State) error {
		before := st.Rewards.XP
		if err := fn(st); err != nil {
			return err
		}
		if st.Rewards.XP < before {
			spent = before - st.Rewards.XP
		}
		return nil
	})
	if err != nil {
		return err
	}
	if spent > 0 {
		metrics.XPSpent.Add(float64(spent))
	}
	s.persist()
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() *domain.State {
	return s.engine.Snapshot()
}

// Combo returns the live capture combo count.
func (s *Service) Combo() int { return s.engine.Combo() }

// UndoPending reports whether the last capture can still be undone.
func (s *Service) UndoPending() bool { return s.engine.UndoPending() }

// Export renders the current snapshot as indented JSON.
func (s *Service) Export() ([]byte, error) {
	data, err := json.MarshalIndent(s.engine.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export state: %w", err)
	}
	return data, nil
}

// Rollover applies the daily reset and persists when it happened.
func (s *Service) Rollover() bool {
	if !s.engine.Rollover() {
		return false
	}
	s.log.Info("daily missions rolled over")
	s.persist()
	return true
}

// RunRollover checks for a new calendar day every interval until ctx is
// done, so a long-running server crosses midnight without user input.
func (s *Service) RunRollover(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Rollover()
		}
	}
}

// Persist saves the current snapshot now. It is a no-op in preview mode.
func (s *Service) Persist() error {
	if s.opts.Preview {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	snap := s.engine.Snapshot()
	if err := s.store.SaveState(snap); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// persist saves after an action. The action already happened in memory,
// so a failed save is logged rather than reported to the caller.
func (s *Service) persist() {
	if err := s.Persist(); err != nil {
		s.log.Error("persist state", zap.Error(err))
	}
}

func (s *Service) record(eff engagement.Effects) {
	if eff.XP > 0 {
		metrics.XPGranted.Add(float64(eff.XP))
	}
	for _, m := range eff.Missions {
		metrics.MissionsCompleted.WithLabelValues(string(m.ID)).Inc()
	}
	for _, u := range eff.Unlocks {
		metrics.AchievementsUnlocked.WithLabelValues(u.Achievement.ID).Inc()
	}
	snap := s.engine.Snapshot()
	metrics.Level.Set(float64(snap.Rewards.Level))
	metrics.Streak.Set(float64(snap.Rewards.Streak))
	metrics.ItemsStored.Set(float64(len(snap.Items)))
}
