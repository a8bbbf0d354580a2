// Package metrics exposes run accounting as Prometheus collectors. Runs are
// short-lived cron jobs, so the registry is written to a node_exporter
// textfile rather than served.
package metrics

import (
	"time"

	"github.com/lite-lake/dnssync/internal/domain/circuit"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dnssync"

type Metrics struct {
	registry *prometheus.Registry

	Reconciliations *prometheus.CounterVec
	Corrections     *prometheus.CounterVec
	RemoteCalls     *prometheus.CounterVec
	RemoteLatency   *prometheus.HistogramVec
	Retries         *prometheus.CounterVec
	CircuitState    *prometheus.GaugeVec
	Operations      *prometheus.CounterVec
	RunDuration     prometheus.Gauge
	LastRun         prometheus.Gauge
	TrackedDomains  *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Reconciliations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Domains checked, by outcome",
		}, []string{"outcome"}),
		Corrections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrections_total",
			Help:      "Serial corrections attempted, by mode and result",
		}, []string{"mode", "result"}),
		RemoteCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Calls to the remote authority, by endpoint, operation and result",
		}, []string{"endpoint", "op", "result"}),
		RemoteLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Duration of remote calls including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "op"}),
		Retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_retries_total",
			Help:      "Retries issued against the remote authority",
		}, []string{"endpoint", "op"}),
		CircuitState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		}, []string{"endpoint"}),
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Timed internal operations, by name and result",
		}, []string{"operation", "result"}),
		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last reconciliation run",
		}),
		LastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
		TrackedDomains: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_domains",
			Help:      "Tracked domains by lifecycle state",
		}, []string{"state"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveCall(endpoint, op string, err error, d time.Duration) {
	m.RemoteCalls.WithLabelValues(endpoint, op, result(err)).Inc()
	if d > 0 {
		m.RemoteLatency.WithLabelValues(endpoint, op).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveRetry(endpoint, op string) {
	m.Retries.WithLabelValues(endpoint, op).Inc()
}

var _ circuit.Observer = (*Metrics)(nil)

// ObserveState is a circuit.WithStateChangeHook callback.
func (m *Metrics) ObserveState(endpoint string, _, to circuit.State) {
	m.CircuitState.WithLabelValues(endpoint).Set(float64(to))
}

// ObserveOperation is a logger.OperationObserver.
func (m *Metrics) ObserveOperation(operation string, err error, _ time.Duration) {
	m.Operations.WithLabelValues(operation, result(err)).Inc()
}

func (m *Metrics) ObserveCorrection(r *valueobject.CorrectionResult) {
	mode := "write"
	if r.DryRun {
		mode = "dry_run"
	}
	res := "ok"
	if !r.Success {
		res = "error"
	}
	m.Corrections.WithLabelValues(mode, res).Inc()
}

func (m *Metrics) ObserveSummary(s *valueobject.RunSummary) {
	for _, r := range s.Results {
		m.Reconciliations.WithLabelValues(r.Outcome.String()).Inc()
		if r.Correction != nil {
			m.ObserveCorrection(r.Correction)
		}
	}
	m.RunDuration.Set(s.Duration.Seconds())
	m.LastRun.Set(float64(s.StartedAt.Add(s.Duration).Unix()))
}

func (m *Metrics) ObserveTracked(domains map[string]*entity.TrackedDomain) {
	counts := map[entity.State]int{entity.StateActive: 0, entity.StateInactive: 0, entity.StateOrphan: 0}
	for _, d := range domains {
		counts[d.State]++
	}
	for state, n := range counts {
		m.TrackedDomains.WithLabelValues(string(state)).Set(float64(n))
	}
}

// WriteTextfile writes the registry atomically for the node_exporter
// textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
