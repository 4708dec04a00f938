package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/internal/infrastructure/queue"
	"github.com/johnquangdev/medical-scribe/pkg/jobcontext"
)

const (
	jobTypePipeline = "pipeline"

	// InterruptedCause is stored on recordings the reaper fails
	InterruptedCause = "processing interrupted"

	dequeueRetryDelay = time.Second
)

// StartWorkerPool starts workerCount queue consumers and the stalled work reaper.
// In-flight tasks run under ctx and are not cancelled by StopWorkerPool.
func (o *Orchestrator) StartWorkerPool(ctx context.Context, workerCount int) error {
	o.workerMutex.Lock()
	defer o.workerMutex.Unlock()

	if o.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}
	if workerCount < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", workerCount)
	}

	dequeueCtx, cancel := context.WithCancel(ctx)
	o.stopDequeue = cancel
	o.isWorkerPoolRunning = true
	o.workerStopChan = make(chan struct{})

	o.logger.Info("🚀 Starting pipeline worker pool",
		zap.Int("worker_count", workerCount),
	)

	for i := 0; i < workerCount; i++ {
		o.workerWg.Add(1)
		go o.pipelineWorker(ctx, dequeueCtx, i)
	}

	o.workerWg.Add(1)
	go o.reapStalledLoop(ctx)

	return nil
}

// StopWorkerPool stops consuming the queue and waits for running tasks to finish
func (o *Orchestrator) StopWorkerPool() error {
	o.workerMutex.Lock()
	defer o.workerMutex.Unlock()

	if !o.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	o.logger.Info("🛑 Stopping pipeline worker pool...")

	close(o.workerStopChan)
	o.stopDequeue()
	o.workerWg.Wait()
	o.isWorkerPoolRunning = false

	o.logger.Info("✅ Pipeline worker pool stopped")
	return nil
}

// IsRunning reports whether the worker pool is started
func (o *Orchestrator) IsRunning() bool {
	o.workerMutex.Lock()
	defer o.workerMutex.Unlock()
	return o.isWorkerPoolRunning
}

func (o *Orchestrator) pipelineWorker(parentCtx, dequeueCtx context.Context, workerID int) {
	defer o.workerWg.Done()

	o.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))

	for {
		task, err := o.queue.Dequeue(dequeueCtx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || dequeueCtx.Err() != nil {
				o.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
				return
			}
			o.logger.Error("❌ Failed to dequeue task",
				zap.Int("worker_id", workerID),
				zap.Error(err),
			)
			select {
			case <-o.workerStopChan:
				return
			case <-time.After(dequeueRetryDelay):
			}
			continue
		}

		o.runTask(parentCtx, workerID, task)
	}
}

// runTask executes one task and turns any failure into the failed status
func (o *Orchestrator) runTask(parentCtx context.Context, workerID int, task queue.Task) {
	o.logger.Info("👷 Worker picked up recording",
		zap.Int("worker_id", workerID),
		zap.String("recording_id", task.RecordingID.String()),
	)

	jobCtx, cancel := jobcontext.JobBegin(parentCtx, task.RecordingID, jobTypePipeline, workerID, o.cfg.JobTimeout)
	err := jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
		return o.process(ctx, task)
	})
	meta := jobcontext.GetJobMetadata(jobCtx)
	cancel()

	if err == nil {
		o.logger.Info("✅ Recording processed",
			zap.String("recording_id", task.RecordingID.String()),
			zap.Duration("elapsed", meta.Elapsed()),
		)
		return
	}

	if errors.Is(err, errSuperseded) {
		o.logger.Warn("⏭️ Processing attempt superseded, leaving recording to the newer claim",
			zap.String("recording_id", task.RecordingID.String()),
			zap.String("attempt_id", task.AttemptID.String()),
			zap.Duration("elapsed", meta.Elapsed()),
		)
		return
	}

	cause := failureCause(err)
	o.logger.Error("❌ Recording processing failed",
		zap.String("recording_id", task.RecordingID.String()),
		zap.Int("worker_id", workerID),
		zap.Bool("retryable", jobcontext.IsRetryableError(err)),
		zap.Duration("elapsed", meta.Elapsed()),
		zap.Error(err),
	)

	markCtx, markCancel := context.WithTimeout(context.WithoutCancel(parentCtx), 10*time.Second)
	defer markCancel()
	marked, markErr := o.recordings.MarkFailed(markCtx, task.RecordingID, task.AttemptID, cause)
	if markErr != nil {
		o.logger.Error("❌ Failed to mark recording as failed",
			zap.String("recording_id", task.RecordingID.String()),
			zap.Error(markErr),
		)
		return
	}
	if !marked {
		o.logger.Warn("⏭️ Recording moved on before the failure was recorded",
			zap.String("recording_id", task.RecordingID.String()),
			zap.String("attempt_id", task.AttemptID.String()),
		)
	}
}

func failureCause(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "processing timed out"
	}
	return "processing failed: " + err.Error()
}

// reapStalledLoop fails in-flight recordings that stopped making progress,
// once at startup and then on every tick
func (o *Orchestrator) reapStalledLoop(parentCtx context.Context) {
	defer o.workerWg.Done()

	interval := o.cfg.ReapInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	o.reapOnce(parentCtx)
	for {
		select {
		case <-o.workerStopChan:
			return
		case <-ticker.C:
			o.reapOnce(parentCtx)
		}
	}
}

func (o *Orchestrator) reapOnce(ctx context.Context) {
	if _, err := o.ReapStalled(ctx); err != nil {
		o.logger.Error("❌ Failed to reap stalled recordings", zap.Error(err))
	}
}

// ReapStalled marks recordings stuck in transcribing or processing for longer
// than the configured stale window as failed, making them restartable.
func (o *Orchestrator) ReapStalled(ctx context.Context) (int, error) {
	if o.cfg.StaleAfter <= 0 {
		return 0, nil
	}
	before := o.now().Add(-o.cfg.StaleAfter)

	stalled, err := o.recordings.FindStalled(ctx, entities.InFlightStatuses, before)
	if err != nil {
		return 0, fmt.Errorf("find stalled recordings: %w", err)
	}

	reaped := 0
	for _, r := range stalled {
		o.logger.Warn("🧹 Cleaning up stalled recording",
			zap.String("recording_id", r.ID.String()),
			zap.String("status", string(r.Status)),
			zap.Time("updated_at", r.UpdatedAt),
		)
		marked, err := o.recordings.MarkFailed(ctx, r.ID, r.AttemptID, InterruptedCause)
		if err != nil {
			o.logger.Error("❌ Failed to mark stalled recording",
				zap.String("recording_id", r.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if marked {
			reaped++
		}
	}
	return reaped, nil
}
