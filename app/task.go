package app

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"threadpool/pkg/logger"
	"threadpool/pkg/workerpool"
)

// sleepTask демонстрационная задача: печатает начало, спит, печатает конец
type sleepTask struct {
	id       string
	producer string
	seq      int
	duration time.Duration

	console  *console
	logger   *logger.CustomZapLogger
	executed *atomic.Int64
}

var _ workerpool.Task = (*sleepTask)(nil)

func newSleepTask(producer string, seq int, d time.Duration, c *console, l *logger.CustomZapLogger, executed *atomic.Int64) *sleepTask {
	return &sleepTask{
		id:       uuid.NewString(),
		producer: producer,
		seq:      seq,
		duration: d,
		console:  c,
		logger:   l,
		executed: executed,
	}
}

func (t *sleepTask) Run() {
	start := time.Now()
	t.console.started(t.producer, t.seq)
	t.logger.Debug("Задача начата", zap.String("task", t.id), zap.String("producer", t.producer), zap.Int("seq", t.seq))

	time.Sleep(t.duration)

	t.executed.Add(1)
	t.console.finished(t.producer, t.seq, time.Since(start))
	t.logger.Debug("Задача завершена", zap.String("task", t.id))
}
