package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// JobName is the Pushgateway job label.
const JobName = "gosend"

// Metrics holds all Prometheus metrics
type Metrics struct {
	Registry *prometheus.Registry

	// Ledger metrics
	LedgerCalls    *prometheus.CounterVec
	LedgerDuration *prometheus.HistogramVec

	// Transfer metrics
	Transfers        *prometheus.CounterVec
	TransferDuration prometheus.Histogram
}

// New creates all metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,

		LedgerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosend_ledger_calls_total",
				Help: "Total remote ledger calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		LedgerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gosend_ledger_call_duration_seconds",
				Help:    "Duration of remote ledger calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		Transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosend_transfers_total",
				Help: "Total transfer submissions by outcome",
			},
			[]string{"outcome"},
		),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gosend_transfer_duration_seconds",
			Help:    "Duration of transfer submissions including confirmation",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
	}
}

// ObserveLedgerCall records one remote call.
func (m *Metrics) ObserveLedgerCall(operation string, started time.Time, err error) {
	m.LedgerCalls.WithLabelValues(operation, Outcome(err)).Inc()
	m.LedgerDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// ObserveTransfer records one transfer submission.
func (m *Metrics) ObserveTransfer(started time.Time, err error) {
	m.Transfers.WithLabelValues(Outcome(err)).Inc()
	m.TransferDuration.Observe(time.Since(started).Seconds())
}

// Push sends all metrics to a Prometheus Pushgateway.
func (m *Metrics) Push(ctx context.Context, gatewayURL string, grouping map[string]string) error {
	pusher := push.New(gatewayURL, JobName).Gatherer(m.Registry)
	for name, value := range grouping {
		pusher = pusher.Grouping(name, value)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

// Outcome maps an error to its outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
