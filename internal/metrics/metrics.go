package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dealership"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Completed transactions by type (buy, rent, service).",
		},
		[]string{"type"},
	)

	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "service_queue_depth",
		Help:      "Pending service requests.",
	})

	actionStackSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "admin_action_stack_size",
		Help:      "Entries in the admin action log.",
	})

	reservationsReclaimed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_reclaimed_total",
		Help:      "Expired reservations removed by sweeps.",
	})

	persistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persist_failures_total",
		Help:      "Writes to the persistence port that failed after retries.",
	})
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, transactions, queueDepth, actionStackSize, reservationsReclaimed, persistFailures)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncTransaction(kind string) {
	transactions.WithLabelValues(kind).Inc()
}

func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

func SetActionStackSize(n int) {
	actionStackSize.Set(float64(n))
}

func AddReservationsReclaimed(n int) {
	reservationsReclaimed.Add(float64(n))
}

func IncPersistFailure() {
	persistFailures.Inc()
}
