// Package notify enqueues notification intents for the push-delivery
// worker. Delivery is best effort: the acceptance flow hands an intent
// over and moves on, and a lost notification never affects the committed
// outcome.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	r "github.com/redis/go-redis/v9"

	"github.com/jacentio/hirewire/accept"
)

// queueKey is the Redis list the delivery worker consumes.
const queueKey = "notify:contractors"

// Intent is one queued notification.
type Intent struct {
	Kind         string        `json:"kind"` // "bid_accepted" or "bid_rejected"
	ContractorID string        `json:"contractor_id"`
	Notice       accept.Notice `json:"notice"`
	EnqueuedAt   time.Time     `json:"enqueued_at"`
}

// Pusher is the Redis operation the dispatcher needs.
type Pusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *r.IntCmd
}

// Dispatcher queues notification intents onto Redis.
type Dispatcher struct {
	rdb Pusher
}

// New creates a Dispatcher over the given Redis client.
func New(rdb Pusher) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// NotifyAccepted queues the acceptance notification for the winning
// contractor.
func (d *Dispatcher) NotifyAccepted(ctx context.Context, contractorID string, notice accept.Notice) error {
	return d.push(ctx, Intent{
		Kind:         "bid_accepted",
		ContractorID: contractorID,
		Notice:       notice,
		EnqueuedAt:   time.Now().UTC(),
	})
}

// NotifyRejectedBatch queues one rejection notification per contractor.
// The first enqueue failure stops the batch; the caller logs and moves
// on either way.
func (d *Dispatcher) NotifyRejectedBatch(ctx context.Context, contractorIDs []string, notice accept.Notice) error {
	now := time.Now().UTC()
	for _, contractorID := range contractorIDs {
		err := d.push(ctx, Intent{
			Kind:         "bid_rejected",
			ContractorID: contractorID,
			Notice:       notice,
			EnqueuedAt:   now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) push(ctx context.Context, intent Intent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal notification intent: %w", err)
	}
	if err := d.rdb.LPush(ctx, queueKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}
