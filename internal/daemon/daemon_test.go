package daemon

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/relook-app/relook/internal/domain"
	"github.com/relook-app/relook/internal/infra/classifier"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.App.DataDir = t.TempDir()
	cfg.App.Timezone = "UTC"
	cfg.Classifier.Provider = classifier.ProviderMock
	cfg.API.Port = freePort(t)
	return cfg
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestNewWithLogger_PersistsAcrossRestart(t *testing.T) {
	cfg := testConfig(t)

	d, err := NewWithLogger(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWithLogger() error: %v", err)
	}
	res, err := d.Inbox.Capture(context.Background(), domain.Input{Text: "Go meetup 2025-09-01 18:00"})
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	d.Close()

	d, err = NewWithLogger(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer d.Close()

	st := d.Inbox.Snapshot()
	if len(st.Items) != 1 || st.Items[0].ID != res.Item.ID {
		t.Fatalf("items = %+v, want the captured item", st.Items)
	}
	if st.Rewards.XP == 0 && st.Rewards.Level == 1 {
		t.Error("rewards were not persisted")
	}
	if len(st.Missions) != 3 {
		t.Errorf("missions = %d, want 3", len(st.Missions))
	}
	notes, err := d.DB.ListNotifications(0, false)
	if err != nil || len(notes) == 0 {
		t.Errorf("stored notifications = %d, %v; want some", len(notes), err)
	}
}

func TestNewWithLogger_Preview(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.Preview = true

	d, err := NewWithLogger(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWithLogger() error: %v", err)
	}
	if _, err := d.Inbox.Capture(context.Background(), domain.Input{Text: "scratch"}); err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	d.Close()

	d, err = NewWithLogger(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer d.Close()
	if n := len(d.Inbox.Snapshot().Items); n != 0 {
		t.Errorf("items after preview session = %d, want 0", n)
	}
}

func TestNewWithLogger_RejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Classifier.Provider = "carrier-pigeon"
	if _, err := NewWithLogger(cfg, zap.NewNop()); err == nil {
		t.Error("expected error for unknown classifier provider")
	}

	cfg = testConfig(t)
	cfg.App.Timezone = "Nowhere/Special"
	if _, err := NewWithLogger(cfg, zap.NewNop()); err == nil {
		t.Error("expected error for bad timezone")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	d, err := NewWithLogger(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWithLogger() error: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.API.Port)
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("status = %d, want 200", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		if _, err := NewLogger(LoggingConfig{Level: "debug", Format: format}); err != nil {
			t.Errorf("NewLogger(%q) error: %v", format, err)
		}
	}
	if _, err := NewLogger(LoggingConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := NewLogger(LoggingConfig{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}
