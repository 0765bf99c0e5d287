// internal/history/recorder.go

// Package history feeds match lifecycle records to the external match-history
// service over a Redis queue. The session engine itself persists nothing; it
// only drops records on the queue and moves on.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the match-history consumer drains.
const DefaultQueueName = "pong_matches"

// MatchRecord is one lifecycle entry for a match: started, each goal, and the
// terminal result (score win or forfeit).
type MatchRecord struct {
	RoomID    uuid.UUID      `json:"room_id"`
	Event     string         `json:"event"`
	Player1   string         `json:"player1,omitempty"`
	Player2   string         `json:"player2,omitempty"`
	Winner    string         `json:"winner,omitempty"`
	Forfeit   bool           `json:"forfeit,omitempty"`
	Score     map[string]int `json:"score,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Recorder pushes match records to Redis. A nil Recorder is valid and drops
// every record, so the engine runs unchanged when no Redis is configured.
type Recorder struct {
	rdb   *redis.Client
	queue string
}

// Connect dials Redis and verifies the connection with a bounded ping.
func Connect(addr string, db int, queue string) (*Recorder, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Recorder{rdb: rdb, queue: queue}, nil
}

// Publish serializes the record and pushes it onto the queue.
func (r *Recorder) Publish(ctx context.Context, rec MatchRecord) error {
	if r == nil || r.rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal match record: %w", err)
	}
	if err := r.rdb.RPush(ctx, r.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list %q: %w", r.queue, err)
	}
	return nil
}

// Close releases the Redis client.
func (r *Recorder) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
