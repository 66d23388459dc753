package arbitrator

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts arbitration outcomes.
type Metrics struct {
	writesAccepted prometheus.Counter
	writesRejected prometheus.Counter
	fillers        prometheus.Counter
	gapFills       prometheus.Counter
	catchUpValues  prometheus.Counter
	sessions       prometheus.Gauge
}

// NewMetrics creates the arbitrator metrics and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		writesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syncstore",
			Name:      "writes_accepted_total",
			Help:      "Write requests accepted with the predicted counter.",
		}),
		writesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syncstore",
			Name:      "writes_rejected_total",
			Help:      "Write requests rejected and queued for replay.",
		}),
		fillers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syncstore",
			Name:      "fillers_total",
			Help:      "Replayed writes that filled a reserved counter.",
		}),
		gapFills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syncstore",
			Name:      "gap_fills_total",
			Help:      "Reserved counters released by the server after disconnect or expiry.",
		}),
		catchUpValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syncstore",
			Name:      "catchup_values_total",
			Help:      "Values forwarded to new peers during catch-up.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "syncstore",
			Name:      "sessions",
			Help:      "Connected sessions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.writesAccepted, m.writesRejected, m.fillers, m.gapFills, m.catchUpValues, m.sessions)
	}
	return m
}
