package signing

import (
	"sync"
	"time"

	"github.com/kashguard/go-eos-signer/internal/eos/actions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once

	sessionsTotal       *prometheus.CounterVec
	actionsTotal        *prometheus.CounterVec
	unknownPayloadBytes prometheus.Histogram
	sessionDuration     prometheus.Histogram
)

func ensureMetrics() {
	metricsOnce.Do(func() {
		sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eos_signer",
			Name:      "sessions_total",
			Help:      "Signing sessions by outcome",
		}, []string{"outcome"})
		actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eos_signer",
			Name:      "actions_total",
			Help:      "Accepted actions by kind",
		}, []string{"kind"})
		unknownPayloadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eos_signer",
			Name:      "unknown_payload_bytes",
			Help:      "Declared size of unknown action payloads",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		})
		sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eos_signer",
			Name:      "session_duration_seconds",
			Help:      "Wall time of signing sessions including user confirmation",
			Buckets:   prometheus.DefBuckets,
		})
	})
}

func recordAction(kind actions.Kind) {
	ensureMetrics()
	actionsTotal.WithLabelValues(kind.String()).Inc()
}

func recordUnknownPayload(size uint32) {
	ensureMetrics()
	unknownPayloadBytes.Observe(float64(size))
}

func recordSession(outcome string, started time.Time) {
	ensureMetrics()
	sessionsTotal.WithLabelValues(outcome).Inc()
	sessionDuration.Observe(time.Since(started).Seconds())
}
