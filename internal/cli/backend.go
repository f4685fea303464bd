package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/relook-app/relook/internal/app/engagement"
	"github.com/relook-app/relook/internal/app/inbox"
	"github.com/relook-app/relook/internal/app/shop"
	"github.com/relook-app/relook/internal/daemon"
	"github.com/relook-app/relook/internal/domain"
)

// ─── Backend ────────────────────────────────────────────────────────────────
// Commands act on whichever process owns the database: a running
// 'relook serve' through its HTTP API, otherwise a local daemon.

type backend interface {
	Snapshot() (*domain.State, error)
	Capture(ctx context.Context, in domain.Input) (inbox.CaptureResult, error)
	Undo() error
	CreateDeck(title string) (domain.Deck, engagement.Effects, error)
	OrganizeItem(itemID, deckID string) (engagement.Effects, error)
	CompleteReminder(id string) (engagement.Effects, error)
	DeleteItem(id string) error
	ClaimMysteryBox() (int, engagement.Effects, error)
	Shop() (shopView, error)
	Purchase(id string) (domain.Cosmetic, domain.Rewards, error)
	Equip(id string) (domain.Cosmetic, error)
	Export() ([]byte, error)
	Close()
}

// shopView mirrors GET /api/shop.
type shopView struct {
	XP         int            `json:"xp"`
	TotalSpent int            `json:"total_spent"`
	Cosmetics  []shop.Listing `json:"cosmetics"`
}

const (
	dialTimeout   = 500 * time.Millisecond
	actionTimeout = 2 * time.Minute
)

// openBackend prefers a running server and falls back to a local daemon.
func openBackend() (backend, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c, ok := dialServer(cfg.API); ok {
		return c, nil
	}
	d, err := openDaemon(cfg)
	if err != nil {
		return nil, err
	}
	return &localBackend{d: d}, nil
}

// ─── Local ──────────────────────────────────────────────────────────────────

type localBackend struct {
	d *daemon.Daemon
}

func (b *localBackend) Snapshot() (*domain.State, error) { return b.d.Inbox.Snapshot(), nil }

func (b *localBackend) Capture(ctx context.Context, in domain.Input) (inbox.CaptureResult, error) {
	return b.d.Inbox.Capture(ctx, in)
}

// Undo always fails locally: the undo window only outlives a command inside
// a running server.
func (b *localBackend) Undo() error { return domain.ErrNothingToUndo }

func (b *localBackend) CreateDeck(title string) (domain.Deck, engagement.Effects, error) {
	return b.d.Inbox.CreateDeck(title)
}

func (b *localBackend) OrganizeItem(itemID, deckID string) (engagement.Effects, error) {
	return b.d.Inbox.OrganizeItem(itemID, deckID)
}

func (b *localBackend) CompleteReminder(id string) (engagement.Effects, error) {
	return b.d.Inbox.CompleteReminder(id)
}

func (b *localBackend) DeleteItem(id string) error { return b.d.Inbox.DeleteItem(id) }

func (b *localBackend) ClaimMysteryBox() (int, engagement.Effects, error) {
	return b.d.Inbox.ClaimMysteryBox()
}

func (b *localBackend) Shop() (shopView, error) {
	list, err := b.d.Shop.List()
	if err != nil {
		return shopView{}, err
	}
	spent, err := b.d.Shop.TotalSpent()
	if err != nil {
		return shopView{}, err
	}
	return shopView{XP: b.d.Inbox.Snapshot().Rewards.XP, TotalSpent: spent, Cosmetics: list}, nil
}

func (b *localBackend) Purchase(id string) (domain.Cosmetic, domain.Rewards, error) {
	return b.d.Shop.Purchase(id)
}

func (b *localBackend) Equip(id string) (domain.Cosmetic, error) { return b.d.Shop.Equip(id) }

func (b *localBackend) Export() ([]byte, error) { return b.d.Inbox.Export() }

func (b *localBackend) Close() { closeDaemon(b.d) }

// ─── Remote ─────────────────────────────────────────────────────────────────

type serverClient struct {
	base string
	http *http.Client
}

// dialServer reports whether a relook server answers on the configured
// address. Any HTTP response counts, including an unhealthy 503.
func dialServer(api daemon.APIConfig) (*serverClient, bool) {
	host := api.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	base := "http://" + hostPort(host, api.Port)

	ping := &http.Client{Timeout: dialTimeout}
	resp, err := ping.Get(base + "/health")
	if err != nil {
		return nil, false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return &serverClient{base: base, http: &http.Client{Timeout: actionTimeout}}, true
}

func hostPort(host string, port int) string {
	if strings.Contains(host, ":") {
		return fmt.Sprintf("[%s]:%d", host, port)
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// apiError is a non-2xx reply. It unwraps to the domain sentinel whose
// message the server sent, so callers can keep using errors.Is.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Message
}

var remoteSentinels = []error{
	domain.ErrEmptyCapture,
	domain.ErrNothingToUndo,
	domain.ErrItemNotFound,
	domain.ErrAlreadyInDeck,
	domain.ErrDeckNotFound,
	domain.ErrDeckExists,
	domain.ErrDeckTitle,
	domain.ErrReminderNotFound,
	domain.ErrReminderDone,
	domain.ErrInsufficientXP,
	domain.ErrCosmeticNotFound,
	domain.ErrCosmeticOwned,
	domain.ErrCosmeticNotOwned,
	domain.ErrMysteryBoxUnavailable,
}

func (e *apiError) Unwrap() error {
	for _, s := range remoteSentinels {
		if strings.HasSuffix(e.Message, s.Error()) {
			return s
		}
	}
	return nil
}

func (c *serverClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relook server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var env struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&env)
		return &apiError{Status: resp.StatusCode, Message: env.Error.Message}
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw, err = io.ReadAll(resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *serverClient) Snapshot() (*domain.State, error) {
	var out struct {
		State *domain.State `json:"state"`
	}
	if err := c.do(context.Background(), http.MethodGet, "/api/state", nil, &out); err != nil {
		return nil, err
	}
	if out.State == nil {
		return nil, errors.New("relook server: empty state")
	}
	return out.State, nil
}

func (c *serverClient) Capture(ctx context.Context, in domain.Input) (inbox.CaptureResult, error) {
	req := map[string]any{"text": in.Text}
	if len(in.Data) > 0 {
		req["data"] = in.Data
		req["mime_type"] = in.MIMEType
	}
	var res inbox.CaptureResult
	err := c.do(ctx, http.MethodPost, "/api/capture", req, &res)
	return res, err
}

func (c *serverClient) Undo() error {
	return c.do(context.Background(), http.MethodPost, "/api/undo", nil, nil)
}

func (c *serverClient) CreateDeck(title string) (domain.Deck, engagement.Effects, error) {
	var out struct {
		Deck    domain.Deck        `json:"deck"`
		Effects engagement.Effects `json:"effects"`
	}
	err := c.do(context.Background(), http.MethodPost, "/api/decks", map[string]string{"title": title}, &out)
	return out.Deck, out.Effects, err
}

func (c *serverClient) OrganizeItem(itemID, deckID string) (engagement.Effects, error) {
	var out struct {
		Effects engagement.Effects `json:"effects"`
	}
	path := "/api/items/" + url.PathEscape(itemID) + "/organize"
	err := c.do(context.Background(), http.MethodPost, path, map[string]string{"deck_id": deckID}, &out)
	return out.Effects, err
}

func (c *serverClient) CompleteReminder(id string) (engagement.Effects, error) {
	var out struct {
		Effects engagement.Effects `json:"effects"`
	}
	path := "/api/reminders/" + url.PathEscape(id) + "/complete"
	err := c.do(context.Background(), http.MethodPost, path, nil, &out)
	return out.Effects, err
}

func (c *serverClient) DeleteItem(id string) error {
	return c.do(context.Background(), http.MethodDelete, "/api/items/"+url.PathEscape(id), nil, nil)
}

func (c *serverClient) ClaimMysteryBox() (int, engagement.Effects, error) {
	var out struct {
		Bonus   int                `json:"bonus"`
		Effects engagement.Effects `json:"effects"`
	}
	err := c.do(context.Background(), http.MethodPost, "/api/mysterybox/claim", nil, &out)
	return out.Bonus, out.Effects, err
}

func (c *serverClient) Shop() (shopView, error) {
	var out shopView
	err := c.do(context.Background(), http.MethodGet, "/api/shop", nil, &out)
	return out, err
}

func (c *serverClient) Purchase(id string) (domain.Cosmetic, domain.Rewards, error) {
	var out struct {
		Cosmetic domain.Cosmetic `json:"cosmetic"`
		Rewards  domain.Rewards  `json:"rewards"`
	}
	err := c.do(context.Background(), http.MethodPost, "/api/shop/purchase", map[string]string{"id": id}, &out)
	return out.Cosmetic, out.Rewards, err
}

func (c *serverClient) Equip(id string) (domain.Cosmetic, error) {
	var out struct {
		Cosmetic domain.Cosmetic `json:"cosmetic"`
	}
	err := c.do(context.Background(), http.MethodPost, "/api/shop/equip", map[string]string{"id": id}, &out)
	return out.Cosmetic, err
}

func (c *serverClient) Export() ([]byte, error) {
	var data []byte
	err := c.do(context.Background(), http.MethodGet, "/api/export", nil, &data)
	return bytes.TrimRight(data, "\n"), err
}

func (c *serverClient) Close() { c.http.CloseIdleConnections() }
