package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RecipeWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipe_writes_total",
			Help: "Committed recipe aggregate writes by operation",
		},
		[]string{"operation"}, // create, update, delete
	)

	Toggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_toggles_total",
			Help: "Favorite, shopping cart and subscription toggles by outcome",
		},
		[]string{"relation", "action", "result"},
	)

	ShoppingListLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_lines",
			Help:    "Number of lines in rendered shopping lists",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
)

func RecordToggle(relation, action string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	Toggles.WithLabelValues(relation, action, result).Inc()
}
