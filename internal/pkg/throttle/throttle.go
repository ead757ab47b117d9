package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether an action identified by key may proceed.
type Limiter interface {
	// Allow consumes one unit from every window attached to the key.
	// It returns false when any window is exhausted.
	Allow(ctx context.Context, key string) (bool, error)
}

// Window describes a fixed counting window.
type Window struct {
	// Name distinguishes the window in the storage key.
	Name string
	// Limit is the maximum number of events within the period.
	Limit int
	// Period is the window length.
	Period time.Duration
}

// FixedWindow is a Redis-backed fixed window rate limiter.
//
// Each window keeps a counter under <prefix><name>:<key> that expires with
// the window period. Counters are incremented atomically so concurrent
// callers never under-count.
type FixedWindow struct {
	client  *redis.Client
	prefix  string
	windows []Window
}

// NewFixedWindow builds a limiter that enforces every given window.
// Windows with a non-positive limit or period are ignored.
func NewFixedWindow(client *redis.Client, windows ...Window) *FixedWindow {
	ws := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Limit <= 0 || w.Period <= 0 {
			continue
		}
		ws = append(ws, w)
	}

	return &FixedWindow{
		client:  client,
		prefix:  "throttle:",
		windows: ws,
	}
}

// Allow increments all window counters for key and reports whether every
// window is still within its limit.
//
// All counters are bumped even when one window is already exhausted, so a
// caller hammering the endpoint keeps the short window saturated.
func (f *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	if len(f.windows) == 0 {
		return true, nil
	}

	pipe := f.client.Pipeline()

	counts := make([]*redis.IntCmd, len(f.windows))
	for i, w := range f.windows {
		wk := fmt.Sprintf("%s%s:%s", f.prefix, w.Name, key)
		counts[i] = pipe.Incr(ctx, wk)
		// NX keeps the window anchored at the first event.
		pipe.ExpireNX(ctx, wk, w.Period)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	for i, w := range f.windows {
		if counts[i].Val() > int64(w.Limit) {
			return false, nil
		}
	}

	return true, nil
}

// Unlimited is a Limiter that always allows. Useful in tests and when rate
// limiting is disabled by configuration.
type Unlimited struct{}

// Allow always reports true.
func (Unlimited) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}
