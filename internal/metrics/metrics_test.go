package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPoolMetrics_Lifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPoolMetrics(reg)

	m.WorkerStarted("p")
	m.WorkerStarted("p")
	m.TaskSubmitted("p")
	m.TaskStarted("p")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BusyWorkers.WithLabelValues("p")))

	m.TaskFinished("p", 10*time.Millisecond)
	m.KillSent("p", 2)
	m.WorkerStopped("p", false)
	m.WorkerStopped("p", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksSubmitted.WithLabelValues("p")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksExecuted.WithLabelValues("p")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.KillsSent.WithLabelValues("p")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BusyWorkers.WithLabelValues("p")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.WorkerCount.WithLabelValues("p")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TaskDuration))
}

func TestPoolMetrics_LostWorker(t *testing.T) {
	m := NewPoolMetrics(prometheus.NewRegistry())

	m.WorkerStarted("p")
	m.TaskStarted("p")
	m.WorkerStopped("p", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkersLost.WithLabelValues("p")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BusyWorkers.WithLabelValues("p")))
}

func TestPoolMetrics_NilReceiver(t *testing.T) {
	var m *PoolMetrics

	assert.NotPanics(t, func() {
		m.TaskSubmitted("p")
		m.TaskStarted("p")
		m.TaskFinished("p", time.Second)
		m.KillSent("p", 1)
		m.WorkerStarted("p")
		m.WorkerStopped("p", true)
		m.SetQueueDepth("p", 3)
	})
}
