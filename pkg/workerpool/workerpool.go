// Package workerpool реализует пул с фиксированным числом воркеров,
// общей FIFO очередью и корректной остановкой через сигналы завершения.
package workerpool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"threadpool/internal/metrics"
	"threadpool/pkg/logger"
)

var (
	// ErrInvalidPoolSize возвращается при попытке создать пул без воркеров
	ErrInvalidPoolSize = errors.New("workerpool: pool size must be at least 1")

	// ErrPoolClosed значение паники при Submit после Close
	ErrPoolClosed = errors.New("workerpool: submit on closed pool")

	// ErrWorkerLost воркер завершился, не получив сигнал завершения
	ErrWorkerLost = errors.New("workerpool: worker exited without kill signal")
)

// WorkerPool пул из фиксированного числа воркеров над общей очередью.
// Задачи выполняются в порядке отправки (глобальный FIFO), каждая не более одного раза.
type WorkerPool struct {
	name    string
	size    int
	workers []*worker
	queue   *sharedQueue
	logger  *logger.CustomZapLogger
	metrics *metrics.PoolMetrics

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New создает пул и сразу запускает size воркеров
func New(size int, opts ...Option) (*WorkerPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPoolSize, size)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	// замыкание не должно ссылаться на пул, иначе финализатор не сработает
	name, m := o.name, o.metrics
	q := newSharedQueue(func(depth int) {
		m.SetQueueDepth(name, depth)
	})

	p := &WorkerPool{
		name:    o.name,
		size:    size,
		workers: make([]*worker, 0, size),
		queue:   q,
		logger:  o.logger.With(zap.String("pool", o.name)),
		metrics: o.metrics,
	}

	for id := range size {
		p.workers = append(p.workers, startWorker(id, p.name, q, p.logger, p.metrics))
	}

	runtime.SetFinalizer(p, (*WorkerPool).release)

	p.logger.Info(fmt.Sprintf("Пул запущен, воркеров: %d", size))
	return p, nil
}

// Submit ставит задачу в очередь и сразу возвращает управление.
// Результат и момент выполнения не сообщаются.
// Вызов после Close или с nil задачей - ошибка вызывающего, вызывает панику.
func (p *WorkerPool) Submit(task Task) {
	if task == nil {
		panic("workerpool: nil task")
	}
	if p.closed.Load() {
		panic(ErrPoolClosed)
	}

	p.metrics.TaskSubmitted(p.name)
	p.queue.push(taskMessage(task))
}

// SubmitFunc то же, что Submit, для обычной функции
func (p *WorkerPool) SubmitFunc(fn func()) {
	if fn == nil {
		panic("workerpool: nil task")
	}
	p.Submit(TaskFunc(fn))
}

// Close останавливает пул: ставит ровно size сигналов завершения за всеми
// уже отправленными задачами и дожидается выхода каждого воркера по очереди.
// Все задачи, отправленные до Close, будут выполнены.
//
// Повторные вызовы не отправляют новых сигналов и возвращают тот же результат.
// Close нельзя вызывать из задачи этого же пула: воркер будет ждать сам себя.
func (p *WorkerPool) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		runtime.SetFinalizer(p, nil)

		p.logger.Info(fmt.Sprintf("Остановка пула: отправка %d сигналов завершения (в очереди: %d)",
			p.size, p.queue.pending()))

		p.queue.pushN(killMessage, p.size)
		p.metrics.KillSent(p.name, p.size)

		var errs error
		for _, w := range p.workers {
			if err := w.join(); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		p.workers = nil
		p.closeErr = errs

		if errs != nil {
			p.logger.Error("Пул остановлен с потерянными воркерами", zap.Error(errs))
			return
		}
		p.logger.Info("Пул остановлен, все воркеры завершены")
	})

	return p.closeErr
}

// release выполняется финализатором для пула, брошенного без Close.
// Воркеры получают сигналы завершения, но дождаться их здесь нельзя.
func (p *WorkerPool) release() {
	if p.closed.Swap(true) {
		return
	}
	p.logger.Warn("Пул собран сборщиком мусора без вызова Close, воркеры освобождаются")
	p.queue.pushN(killMessage, p.size)
	p.metrics.KillSent(p.name, p.size)
}

// Name возвращает имя пула
func (p *WorkerPool) Name() string {
	return p.name
}

// Size возвращает число воркеров
func (p *WorkerPool) Size() int {
	return p.size
}

// Pending возвращает число сообщений, ожидающих в очереди
func (p *WorkerPool) Pending() int {
	return p.queue.pending()
}

// With создает пул на время выполнения fn и гарантированно закрывает его
// при любом выходе из fn, включая панику. Ошибка Close возвращается вызывающему.
func With(size int, fn func(p *WorkerPool), opts ...Option) (err error) {
	p, err := New(size, opts...)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := p.Close(); cerr != nil {
			err = multierr.Append(err, cerr)
		}
	}()

	fn(p)
	return nil
}
