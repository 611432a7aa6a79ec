// Package metrics exposes Prometheus counters for the two hot paths:
// webhook ingestion and task polling.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type Metrics struct {
	WebhookEvents *prometheus.CounterVec
	PollResults   *prometheus.CounterVec
	JobSubmits    *prometheus.CounterVec
}

// Poll outcome labels.
const (
	PollOutcomeAccepted  = "accepted"
	PollOutcomeStale     = "stale"
	PollOutcomeTransient = "transient_error"
	PollOutcomeFatal     = "fatal_error"
)

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "influencer_webhook_events_total",
			Help: "Inbound billing webhook events by kind and outcome.",
		}, []string{"kind", "outcome"}),
		PollResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "influencer_poll_results_total",
			Help: "Task status poll results by outcome.",
		}, []string{"outcome"}),
		JobSubmits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "influencer_job_submits_total",
			Help: "Generation job submissions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.WebhookEvents, m.PollResults, m.JobSubmits)
	return m
}

func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// Module wires the metrics against the default registry.
var Module = fx.Module("observability.metrics",
	fx.Provide(NewDefault),
)
