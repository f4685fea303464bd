package engagement

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relook-app/relook/internal/domain"
	"github.com/relook-app/relook/internal/infra/timer"
)

// XP rewards for user actions.
const (
	CaptureXP          = 50
	OrganizeBonusXP    = 20
	CreateDeckXP       = 30
	OrganizeItemXP     = 20
	CompleteReminderXP = 25
)

// mysteryBoxBonuses are the possible mystery box XP rewards.
var mysteryBoxBonuses = []int{100, 250, 500}

// autoDecks maps content types to the deck auto-organize files them into.
var autoDecks = map[domain.ContentType]string{
	domain.ContentEvent:     "Events",
	domain.ContentJob:       "Jobs",
	domain.ContentRecipe:    "Recipes",
	domain.ContentTutorial:  "Tutorials",
	domain.ContentPortfolio: "Portfolios",
	domain.ContentProduct:   "Products",
	domain.ContentOffer:     "Offers",
}

// AutoDeckTitle returns the auto-organize deck for a content type.
func AutoDeckTitle(ct domain.ContentType) (string, bool) {
	title, ok := autoDecks[ct]
	return title, ok
}

// Config holds the coordinator's time windows.
type Config struct {
	UndoWindow  time.Duration
	ComboWindow time.Duration
}

// DefaultConfig returns the 5s undo and 10s combo windows.
func DefaultConfig() Config {
	return Config{
		UndoWindow:  5 * time.Second,
		ComboWindow: 10 * time.Second,
	}
}

// Deps are the collaborators the coordinator runs on. Nil fields get
// real-time defaults.
type Deps struct {
	Clock     domain.Clock
	Scheduler domain.Scheduler
	Picker    domain.Picker
	Notifier  domain.Notifier
	Logger    *zap.Logger
}

// Effects summarizes what an action did beyond the state change itself.
type Effects struct {
	XP            int                   `json:"xp"`
	LevelsGained  int                   `json:"levels_gained,omitempty"`
	Reminder      *domain.Reminder      `json:"reminder,omitempty"`
	Deck          *domain.Deck          `json:"deck,omitempty"`
	DeckCreated   bool                  `json:"deck_created,omitempty"`
	Missions      []domain.Mission      `json:"missions_completed,omitempty"`
	Unlocks       []Unlock              `json:"unlocks,omitempty"`
	Combo         int                   `json:"combo,omitempty"`
	MysteryBox    bool                  `json:"mystery_box,omitempty"`
	Notifications []domain.Notification `json:"notifications,omitempty"`
}

// undoSlot is the single pending undo.
type undoSlot struct {
	itemID     string
	reminderID string
	deckID     string // set only when the capture created the deck
	rewards    domain.Rewards
	cancel     func() bool
}

// Coordinator serializes every progression action over one State.
// Timer callbacks take the same lock, so the engine behaves like a
// single event loop even under concurrent callers.
type Coordinator struct {
	mu     sync.Mutex
	state  *domain.State
	cfg    Config
	clock  domain.Clock
	sched  domain.Scheduler
	picker domain.Picker
	notify domain.Notifier
	log    *zap.Logger
	newID  func() string

	undo     *undoSlot
	combo    int
	comboGen int
	comboEnd func() bool
}

// NewCoordinator wraps state (which it takes ownership of), seeding the
// achievement catalog and today's missions if needed.
func NewCoordinator(state *domain.State, cfg Config, deps Deps) *Coordinator {
	if state == nil {
		state = domain.NewState()
	}
	if state.Equipped == nil {
		state.Equipped = make(map[domain.CosmeticSlot]string)
	}
	if state.Rewards.Level < 1 {
		state.Rewards.Level = 1
	}
	if cfg.UndoWindow <= 0 {
		cfg.UndoWindow = DefaultConfig().UndoWindow
	}
	if cfg.ComboWindow <= 0 {
		cfg.ComboWindow = DefaultConfig().ComboWindow
	}
	if deps.Clock == nil {
		deps.Clock = timer.NewClock(nil)
	}
	if deps.Scheduler == nil {
		deps.Scheduler = timer.NewScheduler()
	}
	if deps.Picker == nil {
		deps.Picker = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Notifier == nil {
		deps.Notifier = Discard{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	c := &Coordinator{
		state:  state,
		cfg:    cfg,
		clock:  deps.Clock,
		sched:  deps.Scheduler,
		picker: deps.Picker,
		notify: deps.Notifier,
		log:    deps.Logger,
		newID:  uuid.NewString,
	}
	SeedAchievements(c.state)
	RolloverIfNewDay(c.state, c.clock.Now(), c.picker)
	return c
}

// Snapshot returns a deep copy of the current state.
func (c *Coordinator) Snapshot() *domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Update runs fn against the live state under the engine lock. Used by
// collaborators (the store) whose mutations bypass the reward pipeline.
func (c *Coordinator) Update(fn func(s *domain.State) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.state)
}

// Rollover applies the daily reset if the calendar day changed.
func (c *Coordinator) Rollover() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollover(c.clock.Now())
}

// Combo returns the current combo count.
func (c *Coordinator) Combo() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.combo
}

// UndoPending reports whether an undo slot is live.
func (c *Coordinator) UndoPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.undo != nil
}

// ─── Capture / Undo ─────────────────────────────────────────────────────────

// Capture saves a new item and runs the full reward pipeline:
// reminder, auto-organize, XP and streak, missions, night owl,
// achievements, undo slot, combo. Any pending undo is discarded first.
func (c *Coordinator) Capture(d domain.Draft) (domain.Item, Effects, error) {
	if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Body) == "" && d.Payload == nil {
		return domain.Item{}, Effects{}, domain.ErrEmptyCapture
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.rollover(now)
	c.discardUndo()

	var eff Effects
	item := domain.Item{
		ID:          c.newID(),
		ContentType: d.ContentType,
		Title:       d.Title,
		Summary:     d.Summary,
		Body:        d.Body,
		Tags:        append([]string(nil), d.Tags...),
		Source:      d.Source,
		Payload:     d.Payload,
		CreatedAt:   now,
	}
	if item.ContentType == "" {
		item.ContentType = domain.ContentNote
	}
	if item.Source == "" {
		item.Source = domain.SourceText
	}

	if ev, ok := eventPayload(d.Payload); ok {
		if due, ok := ParseEventTime(ev, now.Location()); ok {
			r := domain.Reminder{
				ID:        c.newID(),
				ItemID:    item.ID,
				Title:     firstNonEmpty(ev.Name, item.Title),
				DueAt:     due,
				CreatedAt: now,
			}
			item.ReminderID = r.ID
			c.state.Reminders = append(c.state.Reminders, r)
			eff.Reminder = &r
		} else {
			c.log.Debug("event date not parseable, no reminder",
				zap.String("date", ev.Date), zap.String("time", ev.Time))
		}
	}

	var createdDeck string
	filed := false
	if title, ok := AutoDeckTitle(item.ContentType); ok {
		deck, created := c.ensureDeck(title, now)
		item.DeckIDs = append(item.DeckIDs, deck.ID)
		filed = true
		if created {
			createdDeck = deck.ID
		}
		eff.Deck = &deck
		eff.DeckCreated = created
	}
	c.state.Items = append(c.state.Items, item)

	before := c.state.Rewards
	xp := CaptureXP
	if filed {
		xp += OrganizeBonusXP
	}
	c.grant(xp, now, &eff)

	c.advance(domain.MissionClassifyFirstItem, 1, &eff)
	c.measure(domain.MissionSaveItems, c.state.ItemsCreatedOn(now), &eff)
	if filed {
		c.advance(domain.MissionOrganizeItem, 1, &eff)
	}

	if IsNightOwlHour(now) {
		c.state.Achievements = MarkNightOwl(c.state.Achievements)
	}
	c.evaluate(now, &eff)

	c.armUndo(&undoSlot{
		itemID:     item.ID,
		reminderID: item.ReminderID,
		deckID:     createdDeck,
		rewards:    before,
	})
	c.bumpCombo(now, &eff)

	c.log.Info("item captured",
		zap.String("id", item.ID),
		zap.String("type", string(item.ContentType)),
		zap.Int("xp", eff.XP),
		zap.Bool("filed", filed),
		zap.Int("combo", eff.Combo))
	return item.Clone(), eff, nil
}

// Undo reverts the last capture while its window is open: the item, its
// reminder and the deck it created are removed and rewards are restored
// by overwriting them with the pre-capture snapshot. Any XP earned in the
// meantime is discarded with it.
func (c *Coordinator) Undo() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot := c.undo
	if slot == nil {
		return domain.ErrNothingToUndo
	}
	slot.cancel()
	c.undo = nil

	c.state.Items = removeItem(c.state.Items, slot.itemID)
	if slot.reminderID != "" {
		c.state.Reminders = removeReminder(c.state.Reminders, slot.reminderID)
	}
	if slot.deckID != "" {
		c.state.Decks = removeDeck(c.state.Decks, slot.deckID)
		for i := range c.state.Items {
			c.state.Items[i].DeckIDs = removeString(c.state.Items[i].DeckIDs, slot.deckID)
		}
	}
	c.state.Rewards = slot.rewards

	c.log.Info("capture undone", zap.String("id", slot.itemID))
	return nil
}

func (c *Coordinator) armUndo(slot *undoSlot) {
	slot.cancel = c.sched.AfterFunc(c.cfg.UndoWindow, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.undo == slot {
			c.undo = nil
		}
	})
	c.undo = slot
}

// discardUndo drops a pending undo without reverting anything.
func (c *Coordinator) discardUndo() {
	if c.undo == nil {
		return
	}
	c.undo.cancel()
	c.undo = nil
}

func (c *Coordinator) bumpCombo(now time.Time, eff *Effects) {
	c.combo++
	c.comboGen++
	if c.comboEnd != nil {
		c.comboEnd()
	}
	gen := c.comboGen
	c.comboEnd = c.sched.AfterFunc(c.cfg.ComboWindow, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.comboGen == gen {
			c.combo = 0
			c.comboEnd = nil
		}
	})
	eff.Combo = c.combo
	if c.combo >= 2 {
		c.emit(eff, comboNotification(c.combo, now))
	}
}

// ─── Other XP-granting actions ──────────────────────────────────────────────

// CreateDeck adds a user deck. Titles are unique case-insensitively.
func (c *Coordinator) CreateDeck(title string) (domain.Deck, Effects, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Deck{}, Effects{}, domain.ErrDeckTitle
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.findDeckByTitle(title); ok {
		return domain.Deck{}, Effects{}, domain.ErrDeckExists
	}

	now := c.clock.Now()
	c.rollover(now)

	deck := domain.Deck{ID: c.newID(), Title: title, CreatedAt: now}
	c.state.Decks = append(c.state.Decks, deck)

	var eff Effects
	eff.Deck = &deck
	eff.DeckCreated = true
	c.grant(CreateDeckXP, now, &eff)
	c.advance(domain.MissionCreateDeck, 1, &eff)
	c.evaluate(now, &eff)

	c.log.Info("deck created", zap.String("id", deck.ID), zap.String("title", title))
	return deck, eff, nil
}

// OrganizeItem files an existing item into a deck.
func (c *Coordinator) OrganizeItem(itemID, deckID string) (Effects, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.itemIndex(itemID)
	if idx < 0 {
		return Effects{}, domain.ErrItemNotFound
	}
	deck, ok := c.findDeck(deckID)
	if !ok {
		return Effects{}, domain.ErrDeckNotFound
	}
	if c.state.Items[idx].InDeck(deckID) {
		return Effects{}, domain.ErrAlreadyInDeck
	}

	now := c.clock.Now()
	c.rollover(now)

	c.state.Items[idx].DeckIDs = append(c.state.Items[idx].DeckIDs, deckID)

	var eff Effects
	eff.Deck = &deck
	c.grant(OrganizeItemXP, now, &eff)
	c.advance(domain.MissionOrganizeItem, 1, &eff)
	c.evaluate(now, &eff)

	c.log.Info("item organized", zap.String("item", itemID), zap.String("deck", deckID))
	return eff, nil
}

// CompleteReminder marks a reminder done.
func (c *Coordinator) CompleteReminder(id string) (Effects, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, r := range c.state.Reminders {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Effects{}, domain.ErrReminderNotFound
	}
	if c.state.Reminders[idx].Completed {
		return Effects{}, domain.ErrReminderDone
	}

	now := c.clock.Now()
	c.rollover(now)
	c.state.Reminders[idx].Completed = true

	var eff Effects
	c.grant(CompleteReminderXP, now, &eff)
	c.advance(domain.MissionCompleteReminder, 1, &eff)
	c.evaluate(now, &eff)

	c.log.Info("reminder completed", zap.String("id", id))
	return eff, nil
}

// DeleteItem removes an item and its reminder. No XP is involved. A
// pending undo for the same item is discarded.
func (c *Coordinator) DeleteItem(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.itemIndex(id)
	if idx < 0 {
		return domain.ErrItemNotFound
	}
	item := c.state.Items[idx]
	c.state.Items = removeItem(c.state.Items, id)
	if item.ReminderID != "" {
		c.state.Reminders = removeReminder(c.state.Reminders, item.ReminderID)
	}
	if c.undo != nil && c.undo.itemID == id {
		c.discardUndo()
	}
	c.log.Info("item deleted", zap.String("id", id))
	return nil
}

// ClaimMysteryBox opens today's mystery box for a random XP bonus.
func (c *Coordinator) ClaimMysteryBox() (int, Effects, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.rollover(now)
	if !c.state.MysteryBoxAvailable {
		return 0, Effects{}, domain.ErrMysteryBoxUnavailable
	}

	bonus := mysteryBoxBonuses[c.picker.Perm(len(mysteryBoxBonuses))[0]]
	c.state.MysteryBoxAvailable = false
	c.state.MysteryBoxClaimed = true

	var eff Effects
	c.grant(bonus, now, &eff)
	c.evaluate(now, &eff)

	c.log.Info("mystery box claimed", zap.Int("xp", bonus))
	return bonus, eff, nil
}

// ─── Pipeline steps (callers hold c.mu) ─────────────────────────────────────

func (c *Coordinator) rollover(now time.Time) bool {
	rolled := RolloverIfNewDay(c.state, now, c.picker)
	if rolled {
		c.log.Debug("daily missions drawn", zap.Int("count", len(c.state.Missions)))
	}
	return rolled
}

// grant applies an action's XP and records the activity for the streak.
func (c *Coordinator) grant(xp int, now time.Time, eff *Effects) {
	c.addXP(xp, now, eff)
	prev := c.state.Rewards.Streak
	c.state.Rewards = ApplyActivity(c.state.Rewards, now)
	if c.state.Rewards.Streak > prev {
		c.emit(eff, streakNotification(c.state.Rewards.Streak, now))
	}
}

// addXP applies XP through the leveling calculator only.
func (c *Coordinator) addXP(xp int, now time.Time, eff *Effects) {
	if xp <= 0 {
		return
	}
	var gained int
	c.state.Rewards, gained = ApplyXP(c.state.Rewards, xp)
	eff.XP += xp
	if gained > 0 {
		eff.LevelsGained += gained
		c.emit(eff, levelUpNotification(c.state.Rewards.Level, now))
	}
}

func (c *Coordinator) advance(id domain.MissionID, amount int, eff *Effects) {
	var res MissionResult
	c.state.Missions, res = Advance(c.state.Missions, id, amount)
	c.completeMission(res, eff)
}

func (c *Coordinator) measure(id domain.MissionID, value int, eff *Effects) {
	var res MissionResult
	c.state.Missions, res = SetProgress(c.state.Missions, id, value)
	c.completeMission(res, eff)
}

func (c *Coordinator) completeMission(res MissionResult, eff *Effects) {
	now := c.clock.Now()
	if res.Completed != nil {
		eff.Missions = append(eff.Missions, *res.Completed)
		c.addXP(res.XP, now, eff)
		c.emit(eff, missionNotification(*res.Completed, now))
	}
	if AllComplete(c.state.Missions) && !c.state.MysteryBoxAvailable && !c.state.MysteryBoxClaimed {
		c.state.MysteryBoxAvailable = true
		eff.MysteryBox = true
		c.emit(eff, mysteryBoxNotification(now))
	}
}

// evaluate runs the achievement pass. XP from unlocks can change the
// level, never the counters, so one pass is enough.
func (c *Coordinator) evaluate(now time.Time, eff *Effects) {
	counters := Counters{
		Items:    len(c.state.Items),
		Decks:    len(c.state.Decks),
		Streak:   c.state.Rewards.Streak,
		NightOwl: NightOwlProgress(c.state.Achievements),
	}
	var unlocks []Unlock
	c.state.Achievements, unlocks = Evaluate(c.state.Achievements, counters)
	for _, u := range unlocks {
		eff.Unlocks = append(eff.Unlocks, u)
		c.emit(eff, achievementNotification(u, now))
		if u.XP > 0 {
			c.addXP(u.XP, now, eff)
		} else {
			c.log.Debug("achievement reward carries no XP",
				zap.String("id", u.Achievement.ID), zap.String("reward", u.Achievement.Reward))
		}
	}
}

func (c *Coordinator) emit(eff *Effects, n domain.Notification) {
	eff.Notifications = append(eff.Notifications, n)
	c.notify.Notify(n)
}

// ensureDeck returns the deck titled title, creating an auto deck if needed.
func (c *Coordinator) ensureDeck(title string, now time.Time) (domain.Deck, bool) {
	if d, ok := c.findDeckByTitle(title); ok {
		return d, false
	}
	d := domain.Deck{ID: c.newID(), Title: title, Auto: true, CreatedAt: now}
	c.state.Decks = append(c.state.Decks, d)
	return d, true
}

func (c *Coordinator) findDeckByTitle(title string) (domain.Deck, bool) {
	for _, d := range c.state.Decks {
		if strings.EqualFold(d.Title, title) {
			return d, true
		}
	}
	return domain.Deck{}, false
}

func (c *Coordinator) findDeck(id string) (domain.Deck, bool) {
	for _, d := range c.state.Decks {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Deck{}, false
}

func (c *Coordinator) itemIndex(id string) int {
	for i, it := range c.state.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// ─── helpers ────────────────────────────────────────────────────────────────

func eventPayload(p domain.Payload) (domain.EventPayload, bool) {
	switch v := p.(type) {
	case domain.EventPayload:
		return v, true
	case *domain.EventPayload:
		if v != nil {
			return *v, true
		}
	}
	return domain.EventPayload{}, false
}

func removeItem(items []domain.Item, id string) []domain.Item {
	out := items[:0:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

func removeReminder(rs []domain.Reminder, id string) []domain.Reminder {
	out := rs[:0:0]
	for _, r := range rs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func removeDeck(ds []domain.Deck, id string) []domain.Deck {
	out := ds[:0:0]
	for _, d := range ds {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out
}

func removeString(ss []string, s string) []string {
	if len(ss) == 0 {
		return ss
	}
	out := ss[:0:0]
	for _, v := range ss {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
