package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StoreWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrpay_store_writes_total",
		Help: "Merge-writes issued to the document store.",
	}, []string{"driver", "result"})

	SessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrpay_sessions_started_total",
		Help: "Customer sessions started, by outcome.",
	}, []string{"result"})

	Scans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrpay_scans_total",
		Help: "Scanned payloads handled by cashier terminals, by outcome.",
	}, []string{"outcome"})

	Commits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrpay_commits_total",
		Help: "Status commits by selected status and outcome.",
	}, []string{"status", "result"})

	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qrpay_active_subscriptions",
		Help: "Open document subscriptions.",
	})
)

// Result turns an error into a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func Handler() http.Handler { return promhttp.Handler() }
