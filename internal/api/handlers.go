package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/relook-app/relook/internal/app/engagement"
	"github.com/relook-app/relook/internal/domain"
	"github.com/relook-app/relook/internal/health"
)

// maxCaptureBytes caps a capture request body (base64 screenshots included).
const maxCaptureBytes = 20 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]any{"healthy": true, "checks": []health.Status{}})
		return
	}
	status := http.StatusOK
	healthy := s.health.IsHealthy()
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy": healthy,
		"checks":  s.health.Statuses(),
	})
}

// ─── Capture ────────────────────────────────────────────────────────────────

type captureRequest struct {
	Text     string `json:"text"`
	Data     []byte `json:"data"` // base64 in JSON
	MIMEType string `json:"mime_type"`
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCaptureBytes)
	var req captureRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Data) > 0 && req.MIMEType == "" {
		req.MIMEType = http.DetectContentType(req.Data)
	}

	res, err := s.inbox.Capture(r.Context(), domain.Input{
		Text:     req.Text,
		Data:     req.Data,
		MIMEType: req.MIMEType,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if err := s.inbox.Undo(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"undone":  true,
		"rewards": s.inbox.Snapshot().Rewards,
	})
}

// ─── Library ────────────────────────────────────────────────────────────────

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.inbox.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":        st,
		"level":        levelView(st.Rewards),
		"combo":        s.inbox.Combo(),
		"undo_pending": s.inbox.UndoPending(),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.inbox.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	st := s.inbox.Snapshot()
	ct := r.URL.Query().Get("type")
	deck := r.URL.Query().Get("deck")

	items := make([]domain.Item, 0, len(st.Items))
	for _, it := range st.Items {
		if ct != "" && !strings.EqualFold(string(it.ContentType), ct) {
			continue
		}
		if deck != "" && !it.InDeck(deck) {
			continue
		}
		items = append(items, it)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.inbox.DeleteItem(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type organizeRequest struct {
	DeckID string `json:"deck_id"`
}

func (s *Server) handleOrganize(w http.ResponseWriter, r *http.Request) {
	var req organizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	eff, err := s.inbox.OrganizeItem(chi.URLParam(r, "id"), req.DeckID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"effects": eff})
}

func (s *Server) handleDecks(w http.ResponseWriter, r *http.Request) {
	st := s.inbox.Snapshot()
	type deckView struct {
		domain.Deck
		Items int `json:"items"`
	}
	out := make([]deckView, 0, len(st.Decks))
	for _, d := range st.Decks {
		n := 0
		for _, it := range st.Items {
			if it.InDeck(d.ID) {
				n++
			}
		}
		out = append(out, deckView{Deck: d, Items: n})
	}
	writeJSON(w, http.StatusOK, map[string]any{"decks": out})
}

type createDeckRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if !decodeBody(w, r, &req) {
		return
	}
	deck, eff, err := s.inbox.CreateDeck(req.Title)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"deck": deck, "effects": eff})
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	pending := r.URL.Query().Get("pending") == "true"
	st := s.inbox.Snapshot()
	out := make([]domain.Reminder, 0, len(st.Reminders))
	for _, rem := range st.Reminders {
		if pending && rem.Completed {
			continue
		}
		out = append(out, rem)
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": out})
}

func (s *Server) handleCompleteReminder(w http.ResponseWriter, r *http.Request) {
	eff, err := s.inbox.CompleteReminder(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"effects": eff})
}

// ─── Progression ────────────────────────────────────────────────────────────

type levelResponse struct {
	domain.Rewards
	XPToNextLevel int     `json:"xp_to_next_level"`
	ProgressPct   float64 `json:"progress_pct"`
}

func levelView(r domain.Rewards) levelResponse {
	return levelResponse{
		Rewards:       r,
		XPToNextLevel: engagement.XPToNextLevel(r),
		ProgressPct:   engagement.ProgressPct(r),
	}
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, levelView(s.inbox.Snapshot().Rewards))
}

func (s *Server) handleMissions(w http.ResponseWriter, r *http.Request) {
	st := s.inbox.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"date":                  st.LastMissionDate,
		"missions":              st.Missions,
		"all_complete":          engagement.AllComplete(st.Missions),
		"mystery_box_available": st.MysteryBoxAvailable,
	})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	st := s.inbox.Snapshot()
	unlocked := 0
	for _, a := range st.Achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"achievements": st.Achievements,
		"unlocked":     unlocked,
		"total":        len(st.Achievements),
	})
}

func (s *Server) handleClaimMysteryBox(w http.ResponseWriter, r *http.Request) {
	bonus, eff, err := s.inbox.ClaimMysteryBox()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bonus": bonus, "effects": eff})
}

// ─── Cosmetic store ─────────────────────────────────────────────────────────

type cosmeticRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleShop(w http.ResponseWriter, r *http.Request) {
	list, err := s.shop.List()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	spent, err := s.shop.TotalSpent()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"xp":          s.inbox.Snapshot().Rewards.XP,
		"total_spent": spent,
		"cosmetics":   list,
	})
}

func (s *Server) handlePurchases(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	list, err := s.shop.History(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []domain.Purchase{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": list})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req cosmeticRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, rewards, err := s.shop.Purchase(req.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cosmetic": c, "rewards": rewards})
}

func (s *Server) handleEquip(w http.ResponseWriter, r *http.Request) {
	var req cosmeticRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := s.shop.Equip(req.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cosmetic": c, "equipped": s.inbox.Snapshot().Equipped})
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	pending := r.URL.Query().Get("pending") == "true"

	list, err := s.notifications.ListNotifications(limit, pending)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []domain.Notification{}
	}
	today, err := s.notifications.NotificationCountSince(startOfDay(s.now()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list, "today": today})
}

// queryLimit reads ?limit=, defaulting to 50. It writes a 400 and returns
// false on a malformed value.
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 50, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.notifications.MarkNotificationShown(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
