package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "elections"
)

var (
	// QueriesTotal counts engine queries by view and outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of engine queries",
		},
		[]string{"view", "status"}, // view: results/evolution/night, status: ok/error
	)

	// QueryDuration measures engine query latency.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Engine query latency in seconds",
			Buckets:   []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"view"},
	)

	// NightTransitions counts election-night rating changes.
	NightTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "night_transitions_total",
			Help:      "Total number of election-night rating transitions",
		},
		[]string{"from", "to"},
	)

	// NightSessions tracks live election-night boards.
	NightSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "night_sessions",
			Help:      "Number of election-night sessions held in memory",
		},
	)

	// DatasetRows tracks rows loaded into the snapshot.
	DatasetRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows loaded into the in-memory snapshot",
		},
		[]string{"table"}, // results/electoral
	)
)

// RecordQuery records one engine query.
func RecordQuery(view string, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	QueriesTotal.WithLabelValues(view, status).Inc()
	QueryDuration.WithLabelValues(view).Observe(took.Seconds())
}

// RecordTransition records one election-night rating change.
func RecordTransition(from, to string) {
	NightTransitions.WithLabelValues(from, to).Inc()
}

// RecordDataset records the size of a freshly loaded snapshot.
func RecordDataset(resultRows, electoralRows int) {
	DatasetRows.WithLabelValues("results").Set(float64(resultRows))
	DatasetRows.WithLabelValues("electoral").Set(float64(electoralRows))
}
