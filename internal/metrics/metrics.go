// Package metrics exposes Prometheus counters for the supervisor's
// station lifecycle and fusion pipeline, a domain-stack wiring of the
// pack's github.com/prometheus/client_golang dependency (present in
// the teacher's go.mod but never instantiated there).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every counter genesisd reports.
type Metrics struct {
	StationsAdmitted prometheus.Counter
	StationsRejected prometheus.Counter
	SolutionsFused   prometheus.Counter
	FusionFailures   prometheus.Counter
}

// New constructs a fresh counter set.
func New() *Metrics {
	return &Metrics{
		StationsAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genesis_stations_admitted_total",
			Help: "Stations successfully admitted to the registry.",
		}),
		StationsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genesis_stations_rejected_total",
			Help: "Station announcements rejected by the registry.",
		}),
		SolutionsFused: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genesis_solutions_fused_total",
			Help: "Rover batches the RTK engine solved successfully.",
		}),
		FusionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genesis_fusion_failures_total",
			Help: "Rover batches that failed to produce an RTK solution.",
		}),
	}
}

// MustRegister registers every counter with reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.StationsAdmitted, m.StationsRejected, m.SolutionsFused, m.FusionFailures)
}
