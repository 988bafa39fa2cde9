package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EvalThrottle limits how often a user may trigger an explicit achievement
// pass. With a Redis client the window is shared across instances.
type EvalThrottle struct {
	client   *redis.Client
	interval time.Duration

	mu        sync.Mutex
	last      map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewEvalThrottle(client *redis.Client, interval time.Duration) *EvalThrottle {
	return &EvalThrottle{client: client, interval: interval, last: make(map[string]time.Time), now: time.Now}
}

// Allow reports whether the user may run a pass now and, if so, starts a
// new window.
func (t *EvalThrottle) Allow(ctx context.Context, userID string) (bool, error) {
	if t.interval <= 0 {
		return true, nil
	}
	if t.client != nil {
		ok, err := t.client.SetNX(ctx, "achievement_eval:"+userID, 1, t.interval).Result()
		if err != nil {
			return false, fmt.Errorf("throttle check: %w", err)
		}
		return ok, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if last, ok := t.last[userID]; ok && now.Sub(last) < t.interval {
		return false, nil
	}
	t.sweep(now)
	t.last[userID] = now
	return true, nil
}

// sweep drops closed windows, at most once per interval.
func (t *EvalThrottle) sweep(now time.Time) {
	if now.Sub(t.lastSweep) < t.interval {
		return
	}
	for id, last := range t.last {
		if now.Sub(last) >= t.interval {
			delete(t.last, id)
		}
	}
	t.lastSweep = now
}
