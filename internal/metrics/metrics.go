package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReconcilePasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_reconcile_passes_total",
		Help: "Reconciliation passes executed across all open views.",
	})
	MessagesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_expired_total",
		Help: "Messages destroyed by retention expiry.",
	})
	SeenMarks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_seen_marks_total",
		Help: "Read-receipt updates issued.",
	})
	SideEffectFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_side_effect_failures_total",
		Help: "Failed destroy or seen-mark requests (retried on the next pass).",
	})
	OpenSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_open_view_sessions",
		Help: "Currently open conversation view sessions.",
	})
)

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
