package worker

import "sync"

// Queue is a deduplicating task queue. A task ID already enqueued (and
// not yet handled) is not enqueued again.
type Queue struct {
	ch        chan uint
	mu        sync.Mutex
	enqueued  map[uint]struct{}
	accepting bool
}

// NewQueue creates a queue with the given buffer size.
func NewQueue(buf int) *Queue {
	if buf <= 0 {
		buf = 64
	}
	return &Queue{
		ch:        make(chan uint, buf),
		enqueued:  make(map[uint]struct{}),
		accepting: true,
	}
}

// Enqueue adds a task ID, reporting whether it was accepted.
func (q *Queue) Enqueue(id uint) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.accepting {
		return false
	}
	if _, ok := q.enqueued[id]; ok {
		return false
	}
	select {
	case q.ch <- id:
		q.enqueued[id] = struct{}{}
		return true
	default:
		return false
	}
}

// Dequeued releases the dedup slot after a task has been handled.
func (q *Queue) Dequeued(id uint) {
	q.mu.Lock()
	delete(q.enqueued, id)
	q.mu.Unlock()
}

// StopAccepting rejects further enqueues during shutdown.
func (q *Queue) StopAccepting() {
	q.mu.Lock()
	q.accepting = false
	q.mu.Unlock()
}

// Chan exposes the receive side for workers.
func (q *Queue) Chan() <-chan uint { return q.ch }

// Len returns the number of in-flight task IDs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.enqueued)
}
