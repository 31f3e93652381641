package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PoolMetrics содержит метрики Prometheus для пулов воркеров.
// Все методы безопасны для nil-получателя.
type PoolMetrics struct {
	TasksSubmitted *prometheus.CounterVec
	TasksExecuted  *prometheus.CounterVec
	KillsSent      *prometheus.CounterVec
	WorkersLost    *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec
	QueueDepth     *prometheus.GaugeVec
	BusyWorkers    *prometheus.GaugeVec
	WorkerCount    *prometheus.GaugeVec
}

// NewPoolMetrics создает метрики и регистрирует их в reg
func NewPoolMetrics(reg prometheus.Registerer) *PoolMetrics {
	factory := promauto.With(reg)

	return &PoolMetrics{
		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threadpool_tasks_submitted_total",
				Help: "Total number of tasks submitted to the pool",
			},
			[]string{"pool_name"},
		),
		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threadpool_tasks_executed_total",
				Help: "Total number of tasks run to completion by workers",
			},
			[]string{"pool_name"},
		),
		KillsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threadpool_kill_sentinels_total",
				Help: "Total number of kill sentinels enqueued at shutdown",
			},
			[]string{"pool_name"},
		),
		WorkersLost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threadpool_workers_lost_total",
				Help: "Workers that exited without receiving a kill sentinel",
			},
			[]string{"pool_name"},
		),
		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "threadpool_task_duration_seconds",
				Help:    "Duration of task execution in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),
		QueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "threadpool_queue_depth",
				Help: "Messages currently waiting in the shared queue",
			},
			[]string{"pool_name"},
		),
		BusyWorkers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "threadpool_busy_workers",
				Help: "Workers currently executing a task",
			},
			[]string{"pool_name"},
		),
		WorkerCount: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "threadpool_worker_count",
				Help: "Workers currently alive in the pool",
			},
			[]string{"pool_name"},
		),
	}
}

func (m *PoolMetrics) TaskSubmitted(pool string) {
	if m == nil {
		return
	}
	m.TasksSubmitted.WithLabelValues(pool).Inc()
}

// TaskStarted отмечает начало выполнения задачи
func (m *PoolMetrics) TaskStarted(pool string) {
	if m == nil {
		return
	}
	m.BusyWorkers.WithLabelValues(pool).Inc()
}

// TaskFinished отмечает завершение задачи и ее длительность
func (m *PoolMetrics) TaskFinished(pool string, d time.Duration) {
	if m == nil {
		return
	}
	m.BusyWorkers.WithLabelValues(pool).Dec()
	m.TasksExecuted.WithLabelValues(pool).Inc()
	m.TaskDuration.WithLabelValues(pool).Observe(d.Seconds())
}

func (m *PoolMetrics) KillSent(pool string, n int) {
	if m == nil {
		return
	}
	m.KillsSent.WithLabelValues(pool).Add(float64(n))
}

// WorkerStarted и WorkerStopped поддерживают число живых воркеров
func (m *PoolMetrics) WorkerStarted(pool string) {
	if m == nil {
		return
	}
	m.WorkerCount.WithLabelValues(pool).Inc()
}

func (m *PoolMetrics) WorkerStopped(pool string, lost bool) {
	if m == nil {
		return
	}
	m.WorkerCount.WithLabelValues(pool).Dec()
	if lost {
		m.WorkersLost.WithLabelValues(pool).Inc()
		// задача не дошла до TaskFinished
		m.BusyWorkers.WithLabelValues(pool).Dec()
	}
}

func (m *PoolMetrics) SetQueueDepth(pool string, depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.WithLabelValues(pool).Set(float64(depth))
}
