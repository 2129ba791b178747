package eventbus

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts bus-level outcomes per subscriber.
type Metrics struct {
	published prometheus.Counter
	delivered *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewMetrics registers the bus counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "event_bus_published_total",
			Help: "Total number of events published to the bus",
		}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "event_bus_delivered_total",
			Help: "Total number of events handled successfully, by subscriber",
		}, []string{"subscriber"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "event_bus_dropped_total",
			Help: "Total number of events evicted from a full subscriber queue",
		}, []string{"subscriber"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "event_bus_handler_failures_total",
			Help: "Total number of handler errors and panics, by subscriber",
		}, []string{"subscriber"}),
	}
	reg.MustRegister(m.published, m.delivered, m.dropped, m.failed)
	return m
}

func (m *Metrics) incPublished() {
	if m == nil {
		return
	}
	m.published.Inc()
}

func (m *Metrics) incDelivered(subscriber string) {
	if m == nil {
		return
	}
	m.delivered.WithLabelValues(subscriber).Inc()
}

func (m *Metrics) incDropped(subscriber string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(subscriber).Inc()
}

func (m *Metrics) incFailed(subscriber string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(subscriber).Inc()
}
