package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"procyon/kernel"
)

const namespace = "procyon"

// Metrics counts kernel activity. It implements kernel.Observer.
type Metrics struct {
	registry *prometheus.Registry

	IPCCalls     *prometheus.CounterVec
	Interrupts   *prometheus.CounterVec
	Schedules    prometheus.Counter
	Refreshes    prometheus.Counter
	Faults       *prometheus.CounterVec
	BlockedProcs *prometheus.GaugeVec
}

// New registers the kernel metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		IPCCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ipc_calls_total",
			Help:      "IPC calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		Interrupts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interrupts_total",
			Help:      "Hardware interrupts by how they reached the target.",
		}, []string{"outcome"}),
		Schedules: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_total",
			Help:      "Scheduler selections.",
		}),
		Refreshes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quantum_refreshes_total",
			Help:      "Times every runnable quantum was refilled.",
		}),
		Faults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_total",
			Help:      "Kernel faults by kind.",
		}, []string{"kind"}),
		BlockedProcs: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blocked_procs",
			Help:      "Processes blocked in IPC after the last blocking call.",
		}, []string{"state"}),
	}
}

// Registry returns the registry holding the kernel metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) IPC(op kernel.Function, outcome kernel.Outcome) {
	m.IPCCalls.WithLabelValues(op.String(), outcome.String()).Inc()
}

func (m *Metrics) Interrupt(delivered bool) {
	outcome := "latched"
	if delivered {
		outcome = "delivered"
	}
	m.Interrupts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Scheduled() { m.Schedules.Inc() }

func (m *Metrics) Refreshed() { m.Refreshes.Inc() }

func (m *Metrics) Fault(kind kernel.FaultKind) {
	m.Faults.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) Blocked(sending, receiving int) {
	m.BlockedProcs.WithLabelValues(kernel.StateSending.String()).Set(float64(sending))
	m.BlockedProcs.WithLabelValues(kernel.StateReceiving.String()).Set(float64(receiving))
}

var _ kernel.Observer = (*Metrics)(nil)
