package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "repurpose:tasks"
	dequeueBlock     = 2 * time.Second
	// visibilityTimeout bounds how long a dequeued task may stay unacked
	// before ReapStale hands it to another consumer. It must exceed the
	// longest expected job processing time.
	visibilityTimeout = 5 * time.Minute
)

// RedisQueue implements TaskQueue on four Redis structures: a pending list,
// an in-flight list, a delayed sorted set scored by ready time, and a
// deadlines sorted set scored by visibility expiry. Dequeue atomically moves
// a task from pending to in-flight (BLMOVE) and stamps its deadline; a task
// whose consumer died without acking is requeued by ReapStale once the
// deadline passes.
type RedisQueue struct {
	client *redis.Client
	prefix string
}

// NewRedisQueue builds a queue over an established client.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, prefix: defaultKeyPrefix}
}

func (q *RedisQueue) pendingKey() string   { return q.prefix }
func (q *RedisQueue) activeKey() string    { return q.prefix + ":active" }
func (q *RedisQueue) delayedKey() string   { return q.prefix + ":delayed" }
func (q *RedisQueue) deadlinesKey() string { return q.prefix + ":deadlines" }

func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) error {
	if err := q.client.LPush(ctx, q.pendingKey(), jobID).Err(); err != nil {
		return fmt.Errorf("queue: enqueue: %w", err)
	}
	return nil
}

func (q *RedisQueue) EnqueueAfter(ctx context.Context, jobID string, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(ctx, jobID)
	}
	readyAt := float64(time.Now().Add(delay).UnixMilli())
	if err := q.client.ZAdd(ctx, q.delayedKey(), redis.Z{Score: readyAt, Member: jobID}).Err(); err != nil {
		return fmt.Errorf("queue: enqueue delayed: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (string, error) {
	if err := q.promoteDue(ctx); err != nil {
		return "", err
	}
	jobID, err := q.client.BLMove(ctx, q.pendingKey(), q.activeKey(), "RIGHT", "LEFT", dequeueBlock).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrEmpty
		}
		return "", fmt.Errorf("queue: dequeue: %w", err)
	}
	deadline := float64(time.Now().Add(visibilityTimeout).UnixMilli())
	if err := q.client.ZAdd(ctx, q.deadlinesKey(), redis.Z{Score: deadline, Member: jobID}).Err(); err != nil {
		return "", fmt.Errorf("queue: stamp deadline: %w", err)
	}
	return jobID, nil
}

func (q *RedisQueue) Ack(ctx context.Context, jobID string) error {
	if err := q.client.LRem(ctx, q.activeKey(), 1, jobID).Err(); err != nil {
		return fmt.Errorf("queue: ack: %w", err)
	}
	if err := q.client.ZRem(ctx, q.deadlinesKey(), jobID).Err(); err != nil {
		return fmt.Errorf("queue: clear deadline: %w", err)
	}
	return nil
}

// ReapStale requeues in-flight tasks whose visibility deadline has passed.
// The ZRem guard elects one reaper per task when several run concurrently;
// a task reaped while its original consumer still finishes becomes a
// duplicate delivery, which the terminal-status claim absorbs.
func (q *RedisQueue) ReapStale(ctx context.Context) (int, error) {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	stale, err := q.client.ZRangeByScore(ctx, q.deadlinesKey(), &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: 32,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("queue: scan deadlines: %w", err)
	}
	reaped := 0
	for _, jobID := range stale {
		removed, err := q.client.ZRem(ctx, q.deadlinesKey(), jobID).Result()
		if err != nil {
			return reaped, fmt.Errorf("queue: reap: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LRem(ctx, q.activeKey(), 1, jobID).Err(); err != nil {
			return reaped, fmt.Errorf("queue: reap remove: %w", err)
		}
		if err := q.client.LPush(ctx, q.pendingKey(), jobID).Err(); err != nil {
			return reaped, fmt.Errorf("queue: reap requeue: %w", err)
		}
		reaped++
	}
	return reaped, nil
}

// promoteDue moves delayed tasks whose ready time has passed onto the pending
// list. Racing promoters may both move a member; the orchestrator's terminal
// guard absorbs the duplicate delivery.
func (q *RedisQueue) promoteDue(ctx context.Context) error {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	due, err := q.client.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: 32,
	}).Result()
	if err != nil {
		return fmt.Errorf("queue: scan delayed: %w", err)
	}
	for _, jobID := range due {
		removed, err := q.client.ZRem(ctx, q.delayedKey(), jobID).Result()
		if err != nil {
			return fmt.Errorf("queue: promote: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.pendingKey(), jobID).Err(); err != nil {
			return fmt.Errorf("queue: promote push: %w", err)
		}
	}
	return nil
}

var _ TaskQueue = (*RedisQueue)(nil)
