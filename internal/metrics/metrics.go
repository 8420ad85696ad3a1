package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters live on the default registry and are scraped from the
// observability server's /metrics endpoint.
var (
	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valen_reminders_sent_total",
			Help: "Reminder messages confirmed delivered, by daily slot",
		},
		[]string{"slot"},
	)

	ReminderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valen_reminder_failures_total",
			Help: "Reminder deliveries that failed, by daily slot",
		},
		[]string{"slot"},
	)

	SweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "valen_inactivity_sweeps_total",
			Help: "Completed inactivity sweep runs",
		},
	)

	Escalations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "valen_escalations_total",
			Help: "Silence streaks that crossed the threshold and were escalated",
		},
	)

	Interactions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "valen_interactions_total",
			Help: "Inbound subscriber interactions recorded",
		},
	)
)
