package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/voyagen/nowplaying/internal/models"
)

// ContactQueue is the list key for contact-form notifications.
const ContactQueue = "jobs:contact"

// ContactJob asks the notifier to forward one contact message.
type ContactJob struct {
	Message    models.ContactMessage `json:"message"`
	EnqueuedAt time.Time             `json:"enqueued_at"`
}

// Enqueue pushes a job onto the left side of the queue list.
func Enqueue(ctx context.Context, r *Redis, queue string, job ContactJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue marshal: %w", err)
	}
	return r.client.LPush(ctx, r.key(queue), data).Err()
}

// Dequeue blocks until a job is available on the right side of the list or the
// timeout expires. On timeout or cancellation it returns (nil, nil) so the caller
// can loop and check for shutdown.
func Dequeue(ctx context.Context, r *Redis, queue string, timeout time.Duration) (*ContactJob, error) {
	result, err := r.client.BRPop(ctx, timeout, r.key(queue)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, nil
	}
	var job ContactJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("queue unmarshal: %w", err)
	}
	return &job, nil
}
