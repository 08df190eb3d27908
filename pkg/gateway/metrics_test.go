package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_SnapshotComputesDerivedFields(t *testing.T) {
	m := NewMetrics()
	m.recordReceived()
	m.recordReceived()
	m.recordSuccess(100 * time.Millisecond)
	m.recordFailure()

	snap := m.snapshot("/events", 3)
	assert.Equal(t, int64(2), snap.Total)
	assert.Equal(t, int64(1), snap.Successful)
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, float64(100), snap.AverageLatencyMillis)
	assert.Equal(t, float64(50), snap.SuccessRate)
	assert.Equal(t, 3, snap.CurrentQueueSize)
}

func TestMetrics_SnapshotZeroValueDefaults(t *testing.T) {
	m := NewMetrics()
	snap := m.snapshot("/events", 0)
	assert.Equal(t, float64(0), snap.AverageLatencyMillis)
	assert.Equal(t, float64(100), snap.SuccessRate)
	assert.True(t, snap.LastRequestTime.IsZero())
}

func TestMetrics_RecordQueueFullRejection(t *testing.T) {
	m := NewMetrics()
	m.recordQueueFullRejection()
	snap := m.snapshot("/events", 0)
	assert.Equal(t, int64(1), snap.QueueFullRejections)
}
