package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMonitor_ObserveQueue(t *testing.T) {
	m := NewMonitor("file")

	m.ObserveQueue(12, 5, 2)

	assert.Equal(t, 12.0, testutil.ToFloat64(pendingEntries))
	assert.Equal(t, 5.0, testutil.ToFloat64(bucketCount))
	assert.Equal(t, 2.0, testutil.ToFloat64(streakLength))
}

func TestMonitor_TrackQueueOperation(t *testing.T) {
	m := NewMonitor("file")
	counter := queueOperations.WithLabelValues("select", "empty")
	before := testutil.ToFloat64(counter)

	m.TrackQueueOperation("select", "empty")
	m.TrackQueueOperation("select", "empty")

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestMonitor_TrackSnapshotSave(t *testing.T) {
	m := NewMonitor("redis")

	m.TrackSnapshotSave(3 * time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(snapshotSaveDuration))
}
