package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostgresLatency is the duration of Postgres queries.
	PostgresLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dataaccess_postgres_latency",
			Help: "Duration of Postgres queries",
		},
		[]string{"dal", "query", "table"},
	)

	// PostgresTotalRequests is the total number of Postgres requests.
	PostgresTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_postgres_total_requests",
			Help: "Total number of Postgres requests",
		},
		[]string{"dal", "query", "table"},
	)
)
