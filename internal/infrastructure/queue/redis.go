package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisPollTimeout bounds each BRPOP so consumers notice Close and ctx
const redisPollTimeout = 2 * time.Second

// RedisQueue stores JSON tasks in a Redis list (LPUSH / BRPOP), so pending
// work survives a process restart.
type RedisQueue struct {
	client *redis.Client
	key    string
	closed atomic.Bool
}

var _ Queue = (*RedisQueue)(nil)

// NewRedisQueue creates a queue on the list at key
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Enqueue pushes a task
func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	if q.closed.Load() {
		return ErrClosed
	}
	b, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, b).Err(); err != nil {
		return fmt.Errorf("push task: %w", err)
	}
	return nil
}

// Dequeue pops the oldest task, polling until one arrives
func (q *RedisQueue) Dequeue(ctx context.Context) (Task, error) {
	for {
		if q.closed.Load() {
			return Task{}, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return Task{}, err
		}

		res, err := q.client.BRPop(ctx, redisPollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Task{}, ctx.Err()
			}
			return Task{}, fmt.Errorf("pop task: %w", err)
		}

		// BRPOP replies [key, value]
		var task Task
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			return Task{}, fmt.Errorf("decode task: %w", err)
		}
		return task, nil
	}
}

// Close stops consumers at their next poll
func (q *RedisQueue) Close() error {
	q.closed.Store(true)
	return nil
}
