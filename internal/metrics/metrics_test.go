package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserverUpdatesCollectors(t *testing.T) {
	m := New()

	m.QueueCreated("jobs", 4)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Capacity.WithLabelValues("jobs")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Size.WithLabelValues("jobs")))

	m.Operation("jobs", "enqueue", "success", 1)
	m.Operation("jobs", "enqueue", "success", 2)
	m.Operation("jobs", "enqueue", "overflow", -1)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("enqueue", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("enqueue", "overflow")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Size.WithLabelValues("jobs")))

	m.QueueDestroyed("jobs", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Dropped.WithLabelValues("jobs")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.Size))
}

func TestRegistryIsPrivate(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
