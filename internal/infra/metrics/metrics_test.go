package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/relook-app/relook/internal/domain"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestCaptureCounters(t *testing.T) {
	CapturesTotal.WithLabelValues("Event", "text").Inc()
	UndosTotal.Inc()
	ItemsStored.Set(12)
	ClassifyLatency.WithLabelValues("ok").Observe(0.4)
	ClassifyFailures.WithLabelValues("unavailable").Inc()

	names := gatheredNames(t)
	expected := []string{
		"relook_captures_total",
		"relook_undos_total",
		"relook_items_stored",
		"relook_classify_latency_seconds",
		"relook_classify_failures_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("%s not found in gathered metrics", name)
		}
	}
}

func TestProgressionGauges(t *testing.T) {
	Level.Set(4)
	Streak.Set(7)
	XPGranted.Add(70)

	if got := testutil.ToFloat64(Level); got != 4 {
		t.Errorf("level = %v, want 4", got)
	}
	if got := testutil.ToFloat64(Streak); got != 7 {
		t.Errorf("streak = %v, want 7", got)
	}
}

func TestNotificationCounter(t *testing.T) {
	before := testutil.ToFloat64(NotificationsTotal.WithLabelValues("combo"))
	NotificationCounter{}.Notify(domain.Notification{Type: domain.NotifyCombo})
	after := testutil.ToFloat64(NotificationsTotal.WithLabelValues("combo"))
	if after != before+1 {
		t.Errorf("combo notifications = %v, want %v", after, before+1)
	}
}

func TestHealthStatus(t *testing.T) {
	HealthStatus.WithLabelValues("sqlite").Set(1)
	if got := testutil.ToFloat64(HealthStatus.WithLabelValues("sqlite")); got != 1 {
		t.Errorf("health = %v, want 1", got)
	}
}
