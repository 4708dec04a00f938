package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobBegin_Metadata(t *testing.T) {
	id := uuid.New()
	ctx, cancel := JobBegin(context.Background(), id, "pipeline", 3, time.Minute)
	defer cancel()

	meta := GetJobMetadata(ctx)
	assert.Equal(t, id, meta.JobID)
	assert.Equal(t, "pipeline", meta.JobType)
	assert.Equal(t, 3, meta.WorkerID)
	assert.False(t, meta.StartTime.IsZero())

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, time.Second)
}

func TestJobBegin_DefaultTimeout(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "pipeline", 0, 0)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(DefaultTimeout), deadline, time.Second)
}

func TestJobEnd_RunsOnce(t *testing.T) {
	calls := 0
	boom := errors.New("connection refused")

	err := JobEnd(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestJobEnd_RecoversPanic(t *testing.T) {
	err := JobEnd(context.Background(), func(ctx context.Context) error {
		panic("nil map")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic recovered: nil map")
}

func TestJobEnd_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := JobEnd(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestGetWorkerID_Missing(t *testing.T) {
	assert.Equal(t, -1, GetWorkerID(context.Background()))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(fmt.Errorf("transcribe: %w", context.DeadlineExceeded)))
	assert.True(t, IsRetryableError(errors.New("whisper: server returned HTTP 503: busy")))
	assert.True(t, IsRetryableError(errors.New("dial tcp: connection refused")))
	assert.False(t, IsRetryableError(errors.New("model missing")))
}
