package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for status records, searches and
// file-number notifications.
type Metrics struct {
	Created       prometheus.Counter
	Read          prometheus.Counter
	Updated       prometheus.Counter
	Deleted       prometheus.Counter
	CreatedByCode *prometheus.CounterVec
	// Records created with a status code missing from the reference table.
	CreatedUnrecognized prometheus.Counter

	Searches       prometheus.Counter
	SearchOutcomes *prometheus.CounterVec // result: hit, miss, non_unique

	NotificationRequests prometheus.Counter
	NotificationsSent    prometheus.Counter
	NotificationsFailed  *prometheus.CounterVec // reason
	NotificationLatency  prometheus.Histogram
}

// New registers all passport status metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Created: f.NewCounter(prometheus.CounterOpts{
			Name: "passport_statuses_created_total",
			Help: "Total number of passport status records created",
		}),
		Read: f.NewCounter(prometheus.CounterOpts{
			Name: "passport_statuses_read_total",
			Help: "Total number of passport status records read, including search hits and listings",
		}),
		Updated: f.NewCounter(prometheus.CounterOpts{
			Name: "passport_statuses_updated_total",
			Help: "Total number of passport status records updated",
		}),
		Deleted: f.NewCounter(prometheus.CounterOpts{
			Name: "passport_statuses_deleted_total",
			Help: "Total number of passport status records deleted",
		}),
		CreatedByCode: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_statuses_created_by_code_total",
			Help: "Passport status records created, by status code",
		}, []string{"code"}),
		CreatedUnrecognized: f.NewCounter(prometheus.CounterOpts{
			Name: "passport_statuses_created_unrecognized_code_total",
			Help: "Passport status records created with an unrecognized status code",
		}),
		Searches: f.NewCounter(prometheus.CounterOpts{
			Name: "passport_statuses_searches_total",
			Help: "Total number of passport status searches",
		}),
		SearchOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_statuses_search_outcomes_total",
			Help: "Passport status searches by result",
		}, []string{"result"}),
		NotificationRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "esrf_requests_total",
			Help: "Total number of file-number notification requests",
		}),
		NotificationsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "esrf_requests_sent_total",
			Help: "Total number of file-number notifications delivered",
		}),
		NotificationsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "esrf_requests_failed_total",
			Help: "File-number notifications not delivered, by reason",
		}, []string{"reason"}),
		NotificationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "esrf_requests_delivery_duration_seconds",
			Help:    "Duration of calls to the notification channel",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) IncCreated(code string, recognized bool) {
	if m == nil {
		return
	}
	m.Created.Inc()
	if recognized {
		m.CreatedByCode.WithLabelValues(code).Inc()
		return
	}
	m.CreatedUnrecognized.Inc()
}

func (m *Metrics) IncRead() {
	if m != nil {
		m.Read.Inc()
	}
}

func (m *Metrics) IncUpdated() {
	if m != nil {
		m.Updated.Inc()
	}
}

func (m *Metrics) IncDeleted() {
	if m != nil {
		m.Deleted.Inc()
	}
}

// IncSearch records one search and its result label.
func (m *Metrics) IncSearch(result string) {
	if m != nil {
		m.Searches.Inc()
		m.SearchOutcomes.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncNotificationRequested() {
	if m != nil {
		m.NotificationRequests.Inc()
	}
}

func (m *Metrics) IncNotificationSent() {
	if m != nil {
		m.NotificationsSent.Inc()
	}
}

func (m *Metrics) IncNotificationFailed(reason string) {
	if m != nil {
		m.NotificationsFailed.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ObserveNotificationLatency(d time.Duration) {
	if m != nil {
		m.NotificationLatency.Observe(d.Seconds())
	}
}
