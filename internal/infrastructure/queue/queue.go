// Package queue carries pipeline tasks from request handlers to the worker pool.
package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrClosed is returned by Dequeue after the queue has been closed
var ErrClosed = errors.New("queue closed")

// Task is one unit of background pipeline work. AttemptID is the claim it
// was queued under; a task whose attempt was superseded is dropped.
type Task struct {
	RecordingID    uuid.UUID `json:"recording_id"`
	AttemptID      uuid.UUID `json:"attempt_id"`
	PatientContext string    `json:"patient_context,omitempty"`
	Specialty      string    `json:"specialty,omitempty"`
}

// Queue is a FIFO of tasks. Dequeue blocks until a task arrives, ctx ends or
// the queue is closed.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Dequeue(ctx context.Context) (Task, error)
	Close() error
}
