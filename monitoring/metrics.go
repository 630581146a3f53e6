package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pendingEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_pending_entries",
			Help: "Entries waiting to be selected",
		},
	)

	bucketCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_buckets",
			Help: "Time buckets currently in the queue",
		},
	)

	streakLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_streak_length",
			Help: "Consecutive selections from the same bucket",
		},
	)

	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total queue operations",
		},
		[]string{"operation", "status"},
	)

	snapshotSaveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapshot_save_duration_seconds",
			Help:    "Duration of snapshot writes",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"backend"},
	)
)

type Monitor struct {
	backend string
}

func NewMonitor(backend string) *Monitor {
	return &Monitor{backend: backend}
}

// ObserveQueue records the queue shape after a committed operation.
func (m *Monitor) ObserveQueue(pending, buckets, streak int) {
	pendingEntries.Set(float64(pending))
	bucketCount.Set(float64(buckets))
	streakLength.Set(float64(streak))
}

// Track queue operations
func (m *Monitor) TrackQueueOperation(operation, status string) {
	queueOperations.WithLabelValues(operation, status).Inc()
}

func (m *Monitor) TrackSnapshotSave(duration time.Duration) {
	snapshotSaveDuration.WithLabelValues(m.backend).Observe(duration.Seconds())
}
