// Package reactive implements the cooperative scheduling core of the form
// engine: a single-threaded task queue per form instance and a dependency
// graph that re-evaluates computed fields after writes. All mutation of a
// form's live tree happens on its queue, which reproduces the cooperative,
// no-parallelism semantics the engine is specified against: a write never
// re-enters dependent computations synchronously, it schedules them as
// queue tasks instead.
package reactive

import (
	"sync"
)

// Queue is a single-goroutine task executor. Tasks run strictly in FIFO
// order; tasks enqueued from within a running task run after it finishes,
// which is what breaks synchronous recomputation cycles.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

// NewQueue creates a queue and starts its executor goroutine.
func NewQueue() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		task()
	}
}

// Enqueue posts a task. Tasks posted after Close are dropped.
func (q *Queue) Enqueue(task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.tasks = append(q.tasks, task)
	q.cond.Signal()
}

// Do posts a task and waits for it to finish. It must not be called from a
// task already running on this queue; that would deadlock. External
// entrypoints (HTTP handlers, tests) use Do, queue-internal code calls
// plain functions.
func (q *Queue) Do(task func()) {
	finished := make(chan struct{})
	q.Enqueue(func() {
		defer close(finished)
		task()
	})
	select {
	case <-finished:
	case <-q.done:
	}
}

// Close stops the queue after draining already-posted tasks and waits for
// the executor goroutine to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}
