package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StatementsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "statements_extracted_total", Help: "Statements extracted and profiled"},
		[]string{"provider"},
	)
	ExtractionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "extraction_failures_total", Help: "Statement extractions that failed"},
		[]string{"provider"},
	)
	Aggregations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "aggregations_total", Help: "Multi-period merges served"},
	)
	ActiveDays = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feature_active_days",
			Help:    "Active days per extracted statement",
			Buckets: []float64{0, 5, 10, 15, 20, 25, 31},
		},
	)
)

func init() {
	prometheus.MustRegister(StatementsExtracted, ExtractionFailures, Aggregations, ActiveDays)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
