package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relook-app/relook/internal/app/engagement"
	"github.com/relook-app/relook/internal/app/inbox"
	"github.com/relook-app/relook/internal/app/shop"
	"github.com/relook-app/relook/internal/domain"
	"github.com/relook-app/relook/internal/health"
	"github.com/relook-app/relook/internal/infra/classifier"
	"github.com/relook-app/relook/internal/infra/sqlite"
	"github.com/relook-app/relook/internal/infra/timer"
)

type testEnv struct {
	srv   *Server
	h     http.Handler
	db    *sqlite.DB
	feed  *Feed
	clock *timer.Fake
	coord *engagement.Coordinator
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	feed := NewFeed(nil, nil)
	t.Cleanup(feed.Close)

	clock := timer.NewFake(time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))
	coord := engagement.NewCoordinator(domain.NewState(), engagement.DefaultConfig(), engagement.Deps{
		Clock:     clock,
		Scheduler: clock,
		Notifier:  engagement.MultiNotifier{sqlite.NewNotificationLog(db, nil), feed},
	})
	in := inbox.NewService(coord, classifier.Mock{}, db, inbox.Options{})
	store := shop.NewService(in, db, nil, nil)

	srv := NewServer(in, store, nil)
	srv.SetNotifications(db)
	srv.SetHealth(health.NewChecker(db, dir, nil, nil))
	srv.SetFeed(feed)
	srv.SetClock(clock.Now)
	srv.EnableMetrics()

	return &testEnv{srv: srv, h: srv.Handler(), db: db, feed: feed, clock: clock, coord: coord}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}

// ─── Health Check ───────────────────────────────────────────────────────────

func TestAPI_Health(t *testing.T) {
	e := newTestServer(t)

	w := e.do(t, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAPI_HealthChecks(t *testing.T) {
	e := newTestServer(t)
	e.srv.health.RunOnce(t.Context())

	w := e.do(t, "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	body := decode[struct {
		Healthy bool            `json:"healthy"`
		Checks  []health.Status `json:"checks"`
	}](t, w)
	if !body.Healthy || len(body.Checks) != 2 {
		t.Errorf("health = %+v", body)
	}
}

func TestAPI_Metrics(t *testing.T) {
	e := newTestServer(t)
	e.do(t, "GET", "/api/state", nil)

	w := e.do(t, "GET", "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "relook_api_request_duration_seconds") {
		t.Error("request histogram not exported")
	}
}

// ─── Capture & Undo ─────────────────────────────────────────────────────────

func TestAPI_CaptureEvent(t *testing.T) {
	e := newTestServer(t)

	w := e.do(t, "POST", "/api/capture", map[string]string{"text": "Go meetup 2025-07-10 18:30 at the library"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	res := decode[inbox.CaptureResult](t, w)
	if res.Item.ContentType != domain.ContentEvent {
		t.Errorf("content type = %s, want Event", res.Item.ContentType)
	}
	if res.Effects.Reminder == nil || res.Effects.Deck == nil {
		t.Errorf("effects = %+v, want reminder and deck", res.Effects)
	}

	st := decode[struct {
		State       domain.State `json:"state"`
		UndoPending bool         `json:"undo_pending"`
		Combo       int          `json:"combo"`
	}](t, e.do(t, "GET", "/api/state", nil))
	if len(st.State.Items) != 1 || len(st.State.Reminders) != 1 {
		t.Errorf("items=%d reminders=%d, want 1/1", len(st.State.Items), len(st.State.Reminders))
	}
	if !st.UndoPending || st.Combo != 1 {
		t.Errorf("undo_pending=%v combo=%d", st.UndoPending, st.Combo)
	}

	// Persisted through the inbox service.
	saved, err := e.db.LoadState()
	if err != nil {
		t.Fatalf("LoadState() error: %v", err)
	}
	if len(saved.Items) != 1 {
		t.Errorf("saved items = %d, want 1", len(saved.Items))
	}
}

func TestAPI_CaptureImage(t *testing.T) {
	e := newTestServer(t)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	w := e.do(t, "POST", "/api/capture", map[string]any{"data": png})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	res := decode[inbox.CaptureResult](t, w)
	if res.Item.Source != domain.SourceImage {
		t.Errorf("source = %s, want image", res.Item.Source)
	}
}

func TestAPI_CaptureErrors(t *testing.T) {
	e := newTestServer(t)

	if w := e.do(t, "POST", "/api/capture", map[string]string{"text": "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("empty capture status = %d, want 400", w.Code)
	}

	req := httptest.NewRequest("POST", "/api/capture", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", w.Code)
	}
}

func TestAPI_Undo(t *testing.T) {
	e := newTestServer(t)

	if w := e.do(t, "POST", "/api/undo", nil); w.Code != http.StatusConflict {
		t.Errorf("undo without capture status = %d, want 409", w.Code)
	}

	e.do(t, "POST", "/api/capture", map[string]string{"text": "just a thought"})
	w := e.do(t, "POST", "/api/undo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("undo status = %d, body %s", w.Code, w.Body)
	}
	if n := len(e.coord.Snapshot().Items); n != 0 {
		t.Errorf("items after undo = %d, want 0", n)
	}

	e.do(t, "POST", "/api/capture", map[string]string{"text": "another thought"})
	e.clock.Advance(6 * time.Second)
	if w := e.do(t, "POST", "/api/undo", nil); w.Code != http.StatusConflict {
		t.Errorf("undo after window status = %d, want 409", w.Code)
	}
}

func TestAPI_Export(t *testing.T) {
	e := newTestServer(t)
	e.do(t, "POST", "/api/capture", map[string]string{"text": "Pancake recipe: ingredients flour, eggs"})

	w := e.do(t, "GET", "/api/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var st domain.State
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("export is not a state document: %v", err)
	}
	if len(st.Items) != 1 || st.Items[0].ContentType != domain.ContentRecipe {
		t.Errorf("exported items = %+v, want one recipe", st.Items)
	}
}

// ─── Decks, Items, Reminders ────────────────────────────────────────────────

func TestAPI_DeckLifecycle(t *testing.T) {
	e := newTestServer(t)

	captured := decode[inbox.CaptureResult](t, e.do(t, "POST", "/api/capture", map[string]string{"text": "read later"}))

	w := e.do(t, "POST", "/api/decks", map[string]string{"title": "Reading"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create deck status = %d, body %s", w.Code, w.Body)
	}
	created := decode[struct {
		Deck domain.Deck `json:"deck"`
	}](t, w)

	if w := e.do(t, "POST", "/api/decks", map[string]string{"title": "reading"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate deck status = %d, want 409", w.Code)
	}
	if w := e.do(t, "POST", "/api/decks", map[string]string{"title": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("empty title status = %d, want 400", w.Code)
	}

	path := "/api/items/" + captured.Item.ID + "/organize"
	if w := e.do(t, "POST", path, map[string]string{"deck_id": created.Deck.ID}); w.Code != http.StatusOK {
		t.Fatalf("organize status = %d, body %s", w.Code, w.Body)
	}
	if w := e.do(t, "POST", path, map[string]string{"deck_id": created.Deck.ID}); w.Code != http.StatusConflict {
		t.Errorf("re-organize status = %d, want 409", w.Code)
	}
	if w := e.do(t, "POST", path, map[string]string{"deck_id": "missing"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown deck status = %d, want 404", w.Code)
	}

	items := decode[struct {
		Items []domain.Item `json:"items"`
	}](t, e.do(t, "GET", "/api/items?deck="+created.Deck.ID, nil))
	if len(items.Items) != 1 {
		t.Errorf("deck items = %d, want 1", len(items.Items))
	}

	if w := e.do(t, "DELETE", "/api/items/"+captured.Item.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", w.Code)
	}
	if w := e.do(t, "DELETE", "/api/items/"+captured.Item.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestAPI_CompleteReminder(t *testing.T) {
	e := newTestServer(t)

	captured := decode[inbox.CaptureResult](t, e.do(t, "POST", "/api/capture",
		map[string]string{"text": "Team offsite 2025-07-20 10:00 at the lake house event"}))
	if captured.Effects.Reminder == nil {
		t.Fatalf("no reminder created: %+v", captured.Effects)
	}

	path := "/api/reminders/" + captured.Effects.Reminder.ID + "/complete"
	if w := e.do(t, "POST", path, nil); w.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", w.Code, w.Body)
	}
	if w := e.do(t, "POST", path, nil); w.Code != http.StatusConflict {
		t.Errorf("second complete status = %d, want 409", w.Code)
	}
	if w := e.do(t, "POST", "/api/reminders/nope/complete", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown reminder status = %d, want 404", w.Code)
	}

	pending := decode[struct {
		Reminders []domain.Reminder `json:"reminders"`
	}](t, e.do(t, "GET", "/api/reminders?pending=true", nil))
	if len(pending.Reminders) != 0 {
		t.Errorf("pending reminders = %d, want 0", len(pending.Reminders))
	}
}

// ─── Progression ────────────────────────────────────────────────────────────

func TestAPI_Progression(t *testing.T) {
	e := newTestServer(t)

	missions := decode[struct {
		Missions []domain.Mission `json:"missions"`
	}](t, e.do(t, "GET", "/api/missions", nil))
	if len(missions.Missions) != 3 {
		t.Errorf("missions = %d, want 3", len(missions.Missions))
	}

	ach := decode[struct {
		Total int `json:"total"`
	}](t, e.do(t, "GET", "/api/achievements", nil))
	if ach.Total != len(engagement.Blueprint()) {
		t.Errorf("achievements = %d, want %d", ach.Total, len(engagement.Blueprint()))
	}

	lvl := decode[levelResponse](t, e.do(t, "GET", "/api/rewards", nil))
	if lvl.Level != 1 || lvl.XPToNextLevel != 1000 {
		t.Errorf("rewards = %+v", lvl)
	}

	if w := e.do(t, "POST", "/api/mysterybox/claim", nil); w.Code != http.StatusConflict {
		t.Errorf("claim without box status = %d, want 409", w.Code)
	}
}

func TestAPI_MysteryBoxClaim(t *testing.T) {
	e := newTestServer(t)
	_ = e.coord.Update(func(s *domain.State) error {
		s.MysteryBoxAvailable = true
		return nil
	})

	w := e.do(t, "POST", "/api/mysterybox/claim", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("claim status = %d, body %s", w.Code, w.Body)
	}
	body := decode[struct {
		Bonus int `json:"bonus"`
	}](t, w)
	switch body.Bonus {
	case 100, 250, 500:
	default:
		t.Errorf("bonus = %d, want one of 100/250/500", body.Bonus)
	}
}

// ─── Shop ───────────────────────────────────────────────────────────────────

func TestAPI_Shop(t *testing.T) {
	e := newTestServer(t)
	_ = e.coord.Update(func(s *domain.State) error {
		s.Rewards.XP = 600
		return nil
	})

	list := decode[struct {
		XP        int            `json:"xp"`
		Cosmetics []shop.Listing `json:"cosmetics"`
	}](t, e.do(t, "GET", "/api/shop", nil))
	if list.XP != 600 || len(list.Cosmetics) == 0 {
		t.Fatalf("shop = %+v", list)
	}

	if w := e.do(t, "POST", "/api/shop/equip", map[string]string{"id": "avatar_fox"}); w.Code != http.StatusConflict {
		t.Errorf("equip unowned status = %d, want 409", w.Code)
	}
	if w := e.do(t, "POST", "/api/shop/purchase", map[string]string{"id": "avatar_fox"}); w.Code != http.StatusOK {
		t.Fatalf("purchase status = %d, body %s", w.Code, w.Body)
	}
	if w := e.do(t, "POST", "/api/shop/purchase", map[string]string{"id": "avatar_fox"}); w.Code != http.StatusConflict {
		t.Errorf("repeat purchase status = %d, want 409", w.Code)
	}
	if w := e.do(t, "POST", "/api/shop/purchase", map[string]string{"id": "unicorn"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown cosmetic status = %d, want 404", w.Code)
	}
	if w := e.do(t, "POST", "/api/shop/equip", map[string]string{"id": "avatar_fox"}); w.Code != http.StatusOK {
		t.Errorf("equip status = %d, body %s", w.Code, w.Body)
	}

	after := decode[struct {
		XP         int `json:"xp"`
		TotalSpent int `json:"total_spent"`
	}](t, e.do(t, "GET", "/api/shop", nil))
	if after.TotalSpent != 200 || after.XP != 400 {
		t.Errorf("shop after purchase = %+v, want xp 400, total_spent 200", after)
	}

	hist := decode[struct {
		Purchases []domain.Purchase `json:"purchases"`
	}](t, e.do(t, "GET", "/api/shop/purchases", nil))
	if len(hist.Purchases) != 1 || hist.Purchases[0].CosmeticID != "avatar_fox" {
		t.Errorf("purchases = %+v", hist.Purchases)
	}
}

// ─── Notifications ──────────────────────────────────────────────────────────

func TestAPI_Notifications(t *testing.T) {
	e := newTestServer(t)
	e.do(t, "POST", "/api/capture", map[string]string{"text": "first ever"})

	list := decode[struct {
		Notifications []domain.Notification `json:"notifications"`
	}](t, e.do(t, "GET", "/api/notifications?pending=true", nil))
	if len(list.Notifications) == 0 {
		t.Fatal("expected notifications after first capture")
	}

	id := list.Notifications[0].ID
	if w := e.do(t, "POST", "/api/notifications/"+itoa(id)+"/shown", nil); w.Code != http.StatusNoContent {
		t.Errorf("shown status = %d, want 204", w.Code)
	}
	after := decode[struct {
		Notifications []domain.Notification `json:"notifications"`
	}](t, e.do(t, "GET", "/api/notifications?pending=true", nil))
	if len(after.Notifications) != len(list.Notifications)-1 {
		t.Errorf("pending = %d, want %d", len(after.Notifications), len(list.Notifications)-1)
	}

	if w := e.do(t, "GET", "/api/notifications?limit=-1", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", w.Code)
	}
}

func TestAPI_NotificationsToday(t *testing.T) {
	e := newTestServer(t)
	e.do(t, "POST", "/api/capture", map[string]string{"text": "first ever"})

	type page struct {
		Notifications []domain.Notification `json:"notifications"`
		Today         int                   `json:"today"`
	}
	got := decode[page](t, e.do(t, "GET", "/api/notifications", nil))
	if got.Today == 0 || got.Today != len(got.Notifications) {
		t.Errorf("today = %d, want %d", got.Today, len(got.Notifications))
	}

	e.clock.Set(time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC))
	next := decode[page](t, e.do(t, "GET", "/api/notifications", nil))
	if next.Today != 0 {
		t.Errorf("today after midnight = %d, want 0", next.Today)
	}
	if len(next.Notifications) != len(got.Notifications) {
		t.Errorf("history = %d, want %d kept", len(next.Notifications), len(got.Notifications))
	}
}

func TestAPI_LiveFeed(t *testing.T) {
	e := newTestServer(t)
	ts := httptest.NewServer(e.h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/notifications/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for e.feed.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if e.feed.Count() != 1 {
		t.Fatalf("subscribers = %d, want 1", e.feed.Count())
	}

	e.do(t, "POST", "/api/capture", map[string]string{"text": "live one"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var n domain.Notification
	if err := json.Unmarshal(msg, &n); err != nil {
		t.Fatalf("decode notification: %v", err)
	}
	if n.Type == "" || n.Title == "" {
		t.Errorf("notification = %+v", n)
	}
}

// ─── Errors & CORS ──────────────────────────────────────────────────────────

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrItemNotFound, http.StatusNotFound},
		{domain.ErrCosmeticNotFound, http.StatusNotFound},
		{domain.ErrDeckExists, http.StatusConflict},
		{domain.ErrNothingToUndo, http.StatusConflict},
		{domain.ErrInsufficientXP, http.StatusConflict},
		{domain.ErrEmptyCapture, http.StatusBadRequest},
		{http.ErrBodyNotAllowed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestCORS_Origins(t *testing.T) {
	e := newTestServer(t)
	e.srv.SetCORSOrigins([]string{"http://localhost:5173"})
	h := e.srv.Handler()

	req := httptest.NewRequest("OPTIONS", "/api/state", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest("GET", "/api/state", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow origin = %q, want empty", got)
	}
	if e.srv.CheckOrigin(req) {
		t.Error("CheckOrigin accepted a foreign origin")
	}
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
