// Package metrics provides Prometheus metrics for RELOOK.
// Counters and gauges for captures, classification, XP, missions,
// achievements and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/relook-app/relook/internal/domain"
)

// ─── Captures ───────────────────────────────────────────────────────────────

// CapturesTotal tracks saved items by content type and source kind.
var CapturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "relook",
	Name:      "captures_total",
	Help:      "Total captured items.",
}, []string{"content_type", "source"})

// UndosTotal tracks successful undos.
var UndosTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "relook",
	Name:      "undos_total",
	Help:      "Total captures reverted within the undo window.",
})

// ItemsStored tracks the current item count.
var ItemsStored = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "relook",
	Name:      "items_stored",
	Help:      "Number of items currently saved.",
})

// ─── Classification ─────────────────────────────────────────────────────────

// ClassifyLatency tracks classifier call duration in seconds.
var ClassifyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "relook",
	Name:      "classify_latency_seconds",
	Help:      "Classifier call duration in seconds.",
	Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
}, []string{"outcome"})

// ClassifyFailures tracks classifications that fell back to a plain note.
var ClassifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "relook",
	Name:      "classify_failures_total",
	Help:      "Total captures saved unclassified after a classifier failure.",
}, []string{"reason"})

// ─── Progression ────────────────────────────────────────────────────────────

// XPGranted tracks XP granted by the engine.
var XPGranted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "relook",
	Name:      "xp_granted_total",
	Help:      "Total XP granted.",
})

// XPSpent tracks XP spent in the store.
var XPSpent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "relook",
	Name:      "xp_spent_total",
	Help:      "Total XP spent on cosmetics.",
})

// Level tracks the current level.
var Level = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "relook",
	Name:      "level_current",
	Help:      "Current user level.",
})

// Streak tracks the current streak in days.
var Streak = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "relook",
	Name:      "streak_days",
	Help:      "Current activity streak in days.",
})

// MissionsCompleted tracks completed daily missions by id.
var MissionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "relook",
	Name:      "missions_completed_total",
	Help:      "Total completed daily missions.",
}, []string{"mission"})

// AchievementsUnlocked tracks unlocked achievements by id.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "relook",
	Name:      "achievements_unlocked_total",
	Help:      "Total unlocked achievements.",
}, []string{"achievement"})

// NotificationsTotal tracks engine notifications by type.
var NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "relook",
	Name:      "notifications_total",
	Help:      "Total engine notifications.",
}, []string{"type"})

// ─── API ────────────────────────────────────────────────────────────────────

// APIRequestDuration tracks HTTP API request latency.
var APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "relook",
	Name:      "api_request_duration_seconds",
	Help:      "API request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// LiveSubscribers tracks connected notification websocket clients.
var LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "relook",
	Name:      "live_subscribers",
	Help:      "Connected live notification clients.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthStatus tracks the health check status (1=healthy, 0=unhealthy).
var HealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "relook",
	Name:      "health_status",
	Help:      "Health check status (1=healthy, 0=unhealthy).",
}, []string{"check"})

// ─── Notifier ───────────────────────────────────────────────────────────────

// NotificationCounter is a domain.Notifier that counts notifications by type.
type NotificationCounter struct{}

// Notify implements domain.Notifier.
func (NotificationCounter) Notify(n domain.Notification) {
	NotificationsTotal.WithLabelValues(string(n.Type)).Inc()
}
