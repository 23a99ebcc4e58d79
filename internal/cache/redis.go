// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codecollab/codecollab/internal/judge"
)

// Rdb is the global Redis client. Connect it once at application startup;
// the verdict publisher is a no-op while it is nil.
var Rdb *redis.Client

// DefaultQueueName is the Redis list that verdict records are pushed onto
// for out-of-band consumers (dashboards, history persistence).
var DefaultQueueName = "codecollab_verdicts"

// VerdictRecord is one completed submission's outcome.
type VerdictRecord struct {
	RoomID    string        `json:"room_id"`
	Verdict   judge.Verdict `json:"verdict"`
	Details   string        `json:"details"`
	Timestamp int64         `json:"timestamp"`
}

// ConnectRedis initializes the global client from REDIS_ADDR (default
// "localhost:6379") and REDIS_DB.
func ConnectRedis() error {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		fmt.Sscanf(raw, "%d", &db)
	}

	Rdb = redis.NewClient(&redis.Options{Addr: addr, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishVerdict serializes the record and pushes it onto the verdict queue.
// This is a quick network send off the judging path; failures are the
// caller's to log, never to surface to the room.
func PublishVerdict(ctx context.Context, record VerdictRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal VerdictRecord: %w", err)
	}

	queueName := os.Getenv("VERDICT_QUEUE_NAME")
	if queueName == "" {
		queueName = DefaultQueueName
	}
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list %q: %w", queueName, err)
	}
	return nil
}
