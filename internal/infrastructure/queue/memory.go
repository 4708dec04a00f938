package queue

import (
	"context"
	"sync"
)

// MemoryQueue is a buffered channel queue for single-process deployments
type MemoryQueue struct {
	tasks  chan Task
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates a queue holding up to buffer pending tasks
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer < 1 {
		buffer = 1
	}
	return &MemoryQueue{
		tasks: make(chan Task, buffer),
		done:  make(chan struct{}),
	}
}

// Enqueue adds a task, blocking while the buffer is full
func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	select {
	case q.tasks <- task:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue waits for the next task
func (q *MemoryQueue) Dequeue(ctx context.Context) (Task, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	case <-q.done:
		return Task{}, ErrClosed
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

// Len returns the number of pending tasks
func (q *MemoryQueue) Len() int {
	return len(q.tasks)
}

// Close wakes all waiting consumers; pending tasks are dropped
func (q *MemoryQueue) Close() error {
	q.once.Do(func() {
		close(q.done)
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
	})
	return nil
}
