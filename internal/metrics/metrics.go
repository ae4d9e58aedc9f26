package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "studybot", Name: "updates_total", Help: "Processed telegram updates",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "studybot", Name: "handler_errors_total", Help: "Handler errors",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "studybot", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
	APIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studybot", Name: "api_requests_total", Help: "Calls to the study-group API",
	}, []string{"endpoint", "outcome"})
	APILatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studybot", Name: "api_request_seconds", Help: "Study-group API latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	StaleResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studybot", Name: "stale_responses_total", Help: "Responses dropped because a newer request superseded them",
	}, []string{"op"})
	WarningsShown = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "studybot", Name: "group_mismatch_warnings_total", Help: "Advisory 'no matching groups' warnings shown",
	})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "studybot", Name: "active_sessions", Help: "Chats with an in-memory controller",
	})
)

func init() {
	prometheus.MustRegister(BotUpdates, HandlerErrors, DBPing, APIRequests, APILatency, StaleResponses, WarningsShown, ActiveSessions)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

// ObserveAPI: одна точка учёта вызова API (счётчик по исходу и латентность).
func ObserveAPI(endpoint, outcome string, d time.Duration) {
	APIRequests.WithLabelValues(endpoint, outcome).Inc()
	APILatency.WithLabelValues(endpoint).Observe(d.Seconds())
}
