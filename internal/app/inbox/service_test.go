package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relook-app/relook/internal/app/engagement"
	"github.com/relook-app/relook/internal/app/shop"
	"github.com/relook-app/relook/internal/domain"
	"github.com/relook-app/relook/internal/infra/metrics"
	"github.com/relook-app/relook/internal/infra/timer"
)

var noon = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

// classifierFunc adapts a function to domain.Classifier.
type classifierFunc func(ctx context.Context, in domain.Input) (*domain.Classification, error)

func (f classifierFunc) Classify(ctx context.Context, in domain.Input) (*domain.Classification, error) {
	return f(ctx, in)
}

func failing(err error) domain.Classifier {
	return classifierFunc(func(context.Context, domain.Input) (*domain.Classification, error) {
		return nil, err
	})
}

type memStore struct {
	mu    sync.Mutex
	saves int
	last  *domain.State
	err   error
}

func (m *memStore) LoadState() (*domain.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return domain.NewState(), nil
	}
	return m.last.Clone(), nil
}

func (m *memStore) SaveState(s *domain.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.last = s.Clone()
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func newTestService(t *testing.T, c domain.Classifier, store domain.StateStore, opts Options) *Service {
	t.Helper()
	clock := timer.NewFake(noon)
	coord := engagement.NewCoordinator(domain.NewState(), engagement.DefaultConfig(), engagement.Deps{
		Clock:     clock,
		Scheduler: clock,
	})
	return NewService(coord, c, store, opts)
}

// ═══════════════════════════════════════════════════════════════════════════
// Capture
// ═══════════════════════════════════════════════════════════════════════════

func TestCapture_Classified(t *testing.T) {
	store := &memStore{}
	c := classifierFunc(func(_ context.Context, in domain.Input) (*domain.Classification, error) {
		return &domain.Classification{
			ContentType: domain.ContentEvent,
			Title:       "Go meetup",
			Tags:        []string{"go"},
			Payload:     domain.EventPayload{Name: "Go meetup", Date: "2025-07-10", Time: "18:30"},
		}, nil
	})
	svc := newTestService(t, c, store, Options{})

	res, err := svc.Capture(context.Background(), domain.Input{Text: "Go meetup July 10th 18:30"})
	require.NoError(t, err)
	assert.True(t, res.Classified)
	assert.Equal(t, domain.ContentEvent, res.Item.ContentType)
	assert.Equal(t, "Go meetup July 10th 18:30", res.Item.Body)
	require.NotNil(t, res.Effects.Reminder)
	require.NotNil(t, res.Effects.Deck)
	assert.Equal(t, "Events", res.Effects.Deck.Title)

	assert.Equal(t, 1, store.count())
	require.Len(t, store.last.Items, 1)
	assert.Equal(t, res.Item.ID, store.last.Items[0].ID)
}

func TestCapture_ClassifierFailureSavesNote(t *testing.T) {
	before := testutil.ToFloat64(metrics.ClassifyFailures.WithLabelValues("error"))
	svc := newTestService(t, failing(errors.New("quota exceeded")), &memStore{}, Options{})

	res, err := svc.Capture(context.Background(), domain.Input{Text: "buy oat milk\nand bread"})
	require.NoError(t, err)
	assert.False(t, res.Classified)
	assert.Equal(t, domain.ContentNote, res.Item.ContentType)
	assert.Equal(t, "buy oat milk", res.Item.Title)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ClassifyFailures.WithLabelValues("error")))
}

func TestCapture_Unavailable(t *testing.T) {
	before := testutil.ToFloat64(metrics.ClassifyFailures.WithLabelValues("unavailable"))
	svc := newTestService(t, failing(domain.ErrClassifierUnavailable), &memStore{}, Options{})

	res, err := svc.Capture(context.Background(), domain.Input{Data: []byte{1, 2, 3}, MIMEType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "Screenshot", res.Item.Title)
	assert.Equal(t, domain.SourceImage, res.Item.Source)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ClassifyFailures.WithLabelValues("unavailable")))
}

func TestCapture_Timeout(t *testing.T) {
	slow := classifierFunc(func(ctx context.Context, _ domain.Input) (*domain.Classification, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	svc := newTestService(t, slow, &memStore{}, Options{ClassifyTimeout: 10 * time.Millisecond})

	res, err := svc.Capture(context.Background(), domain.Input{Text: "slow"})
	require.NoError(t, err)
	assert.Equal(t, domain.ContentNote, res.Item.ContentType)
}

func TestCapture_MismatchedPayloadDropped(t *testing.T) {
	c := classifierFunc(func(context.Context, domain.Input) (*domain.Classification, error) {
		return &domain.Classification{
			ContentType: domain.ContentJob,
			Payload:     domain.EventPayload{Name: "x", Date: "2025-07-10"},
		}, nil
	})
	svc := newTestService(t, c, &memStore{}, Options{})

	res, err := svc.Capture(context.Background(), domain.Input{Text: "Backend engineer"})
	require.NoError(t, err)
	assert.Nil(t, res.Item.Payload)
	assert.Equal(t, "Backend engineer", res.Item.Title)
	assert.Nil(t, res.Effects.Reminder)
}

func TestCapture_Empty(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, nil, store, Options{})

	_, err := svc.Capture(context.Background(), domain.Input{Text: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyCapture)
	assert.Zero(t, store.count())
}

func TestCapture_PreviewNeverSaves(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, nil, store, Options{Preview: true})

	_, err := svc.Capture(context.Background(), domain.Input{Text: "hello"})
	require.NoError(t, err)
	require.NoError(t, svc.Undo())
	assert.Zero(t, store.count())
	assert.Empty(t, svc.Snapshot().Items)
}

func TestCapture_SaveFailureIsNotFatal(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	svc := newTestService(t, nil, store, Options{})

	res, err := svc.Capture(context.Background(), domain.Input{Text: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Item.ID)
	assert.Error(t, svc.Persist())
}

// ═══════════════════════════════════════════════════════════════════════════
// Other actions
// ═══════════════════════════════════════════════════════════════════════════

func TestUndo_Persists(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, nil, store, Options{})

	_, err := svc.Capture(context.Background(), domain.Input{Text: "oops"})
	require.NoError(t, err)
	require.NoError(t, svc.Undo())

	assert.Equal(t, 2, store.count())
	assert.Empty(t, store.last.Items)
	assert.ErrorIs(t, svc.Undo(), domain.ErrNothingToUndo)
}

func TestDeckAndOrganize_Persist(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, nil, store, Options{})

	res, err := svc.Capture(context.Background(), domain.Input{Text: "a note"})
	require.NoError(t, err)
	deck, eff, err := svc.CreateDeck("Reading")
	require.NoError(t, err)
	assert.Equal(t, engagement.CreateDeckXP, eff.XP-missionXP(eff))

	_, err = svc.OrganizeItem(res.Item.ID, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, store.count())
	assert.Equal(t, []string{deck.ID}, store.last.Items[0].DeckIDs)

	_, err = svc.OrganizeItem(res.Item.ID, deck.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyInDeck)
	assert.Equal(t, 3, store.count())
}

// missionXP sums the mission rewards folded into an action's XP.
func missionXP(eff engagement.Effects) int {
	n := 0
	for _, m := range eff.Missions {
		n += m.XP
	}
	return n
}

func TestUpdate_ShopPurchasePersists(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, nil, store, Options{})
	require.NoError(t, svc.Update(func(st *domain.State) error {
		st.Rewards.XP = 900
		return nil
	}))

	before := testutil.ToFloat64(metrics.XPSpent)
	store2 := shop.NewService(svc, nil, nil, nil)
	c, rewards, err := store2.Purchase("avatar_fox")
	require.NoError(t, err)

	assert.Equal(t, 900-c.Price, rewards.XP)
	assert.Equal(t, float64(c.Price), testutil.ToFloat64(metrics.XPSpent)-before)
	assert.Equal(t, []string{"avatar_fox"}, store.last.Owned)
}

func TestUpdate_ErrorSkipsSave(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, nil, store, Options{})

	err := svc.Update(func(*domain.State) error { return domain.ErrCosmeticOwned })
	assert.ErrorIs(t, err, domain.ErrCosmeticOwned)
	assert.Zero(t, store.count())
}

func TestExport(t *testing.T) {
	svc := newTestService(t, nil, nil, Options{})
	_, err := svc.Capture(context.Background(), domain.Input{Text: "exported"})
	require.NoError(t, err)

	data, err := svc.Export()
	require.NoError(t, err)

	var got domain.State
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "exported", got.Items[0].Title)
}

func TestRunRollover_StopsOnCancel(t *testing.T) {
	svc := newTestService(t, nil, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.RunRollover(ctx, time.Millisecond) }()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RunRollover did not stop")
	}
}
