package metrics

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "skysight_uploads_total",
	Help: "Finished upload attempts by outcome",
}, []string{"outcome", "stale"})

var uploadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "skysight_upload_duration_seconds",
	Help:    "A histogram of upload and analysis durations",
	Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
}, []string{"outcome"})

var uploadsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "skysight_uploads_in_flight",
})

var activeViews = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "skysight_active_views",
})

func UploadStarted() {
	uploadsInFlight.Inc()
}

func UploadFinished(outcome entity.Outcome, stale bool, d time.Duration) {
	uploadsInFlight.Dec()
	staleLabel := "false"
	if stale {
		staleLabel = "true"
	}
	uploadsTotal.WithLabelValues(outcome.String(), staleLabel).Inc()
	uploadDuration.WithLabelValues(outcome.String()).Observe(d.Seconds())
}

func SetActiveViews(n int) {
	activeViews.Set(float64(n))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
