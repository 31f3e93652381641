package workerpool

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"threadpool/internal/metrics"
	"threadpool/pkg/logger"
)

// worker постоянная горутина, выполняющая цикл "получить - выполнить".
// done закрывается при выходе горутины и служит дескриптором для join.
type worker struct {
	id       int
	poolName string
	queue    *sharedQueue
	logger   *logger.CustomZapLogger
	metrics  *metrics.PoolMetrics

	done chan struct{}
	// err записывается до закрытия done
	err error
}

func startWorker(id int, poolName string, q *sharedQueue, l *logger.CustomZapLogger, m *metrics.PoolMetrics) *worker {
	w := &worker{
		id:       id,
		poolName: poolName,
		queue:    q,
		logger:   l.With(zap.Int("worker", id)),
		metrics:  m,
		done:     make(chan struct{}),
	}

	m.WorkerStarted(poolName)
	go w.run()

	return w
}

func (w *worker) run() {
	killed := false

	defer func() {
		// Сюда можно попасть без сигнала завершения только если задача
		// вызвала runtime.Goexit или паникует. Паника дальше роняет процесс.
		if !killed {
			w.err = fmt.Errorf("worker %d: %w", w.id, ErrWorkerLost)
			w.logger.Error("Воркер завершился без сигнала завершения")
		}
		w.metrics.WorkerStopped(w.poolName, !killed)
		close(w.done)
	}()

	w.logger.Debug("Воркер запущен")

	for {
		msg := w.queue.blockingPop()
		if msg.kind == msgKill {
			killed = true
			w.logger.Debug("Воркер получил сигнал завершения")
			return
		}
		w.execute(msg.task)
	}
}

// execute выполняет задачу синхронно в горутине воркера, без recover
func (w *worker) execute(task Task) {
	w.metrics.TaskStarted(w.poolName)
	start := time.Now()

	task.Run()

	w.metrics.TaskFinished(w.poolName, time.Since(start))
}

// join блокируется до выхода горутины воркера
func (w *worker) join() error {
	<-w.done
	return w.err
}
