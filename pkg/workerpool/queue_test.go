package workerpool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedQueue_FIFO(t *testing.T) {
	q := newSharedQueue(nil)

	for range 5 {
		q.push(taskMessage(TaskFunc(func() {})))
	}
	q.push(killMessage)

	assert.Equal(t, 6, q.pending())
	for range 5 {
		msg := q.blockingPop()
		require.Equal(t, msgTask, msg.kind)
		require.NotNil(t, msg.task)
	}
	assert.Equal(t, msgKill, q.blockingPop().kind)
	assert.Equal(t, 0, q.pending())
}

func TestSharedQueue_OrderPreserved(t *testing.T) {
	q := newSharedQueue(nil)

	var got []int
	for i := range 10 {
		q.push(taskMessage(TaskFunc(func() { got = append(got, i) })))
	}
	for range 10 {
		q.blockingPop().task.Run()
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestSharedQueue_BlockingPopWaitsForPush(t *testing.T) {
	q := newSharedQueue(nil)
	popped := make(chan message)

	go func() {
		popped <- q.blockingPop()
	}()

	select {
	case <-popped:
		t.Fatal("blockingPop вернулся из пустой очереди")
	case <-time.After(20 * time.Millisecond):
	}

	q.push(killMessage)

	select {
	case msg := <-popped:
		assert.Equal(t, msgKill, msg.kind)
	case <-time.After(time.Second):
		t.Fatal("blockingPop не проснулся после push")
	}
}

func TestSharedQueue_BroadcastWakesAllWaiters(t *testing.T) {
	q := newSharedQueue(nil)
	const waiters = 4

	var wg sync.WaitGroup
	wg.Add(waiters)
	for range waiters {
		go func() {
			defer wg.Done()
			q.blockingPop()
		}()
	}

	q.pushN(killMessage, waiters)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("не все ожидающие получили сообщение")
	}
	assert.Equal(t, 0, q.pending())
}

func TestSharedQueue_DepthHook(t *testing.T) {
	var depths []int
	q := newSharedQueue(func(d int) { depths = append(depths, d) })

	q.push(killMessage)
	q.pushN(killMessage, 2)
	q.blockingPop()

	assert.Equal(t, []int{1, 3, 2}, depths)
}
