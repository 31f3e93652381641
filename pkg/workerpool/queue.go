package workerpool

import "sync"

// sharedQueue монитор (мьютекс + условная переменная) над FIFO очередью сообщений.
// Каждый push будит всех ожидающих.
type sharedQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []message

	// onDepth вызывается под блокировкой после каждого изменения длины
	onDepth func(depth int)
}

func newSharedQueue(onDepth func(int)) *sharedQueue {
	q := &sharedQueue{onDepth: onDepth}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push добавляет сообщение в хвост и будит всех ожидающих
func (q *sharedQueue) push(msg message) {
	q.pushN(msg, 1)
}

// pushN добавляет n копий сообщения за одну критическую секцию
func (q *sharedQueue) pushN(msg message, n int) {
	q.mu.Lock()
	for range n {
		q.items = append(q.items, msg)
	}
	q.depthChanged()
	q.mu.Unlock()

	q.cond.Broadcast()
}

// blockingPop ждет, пока очередь не станет непустой, и забирает голову
func (q *sharedQueue) blockingPop() message {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.cond.Wait()
	}

	msg := q.items[0]
	q.items[0] = message{}
	q.items = q.items[1:]
	q.depthChanged()

	return msg
}

// pending возвращает число сообщений в очереди
func (q *sharedQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *sharedQueue) depthChanged() {
	if q.onDepth != nil {
		q.onDepth(len(q.items))
	}
}
