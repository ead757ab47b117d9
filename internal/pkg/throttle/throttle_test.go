package throttle

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestNewFixedWindowDropsInvalidWindows(t *testing.T) {
	f := NewFixedWindow(nil,
		Window{Name: "bad-limit", Limit: 0, Period: time.Minute},
		Window{Name: "bad-period", Limit: 3, Period: 0},
	)

	// No usable windows means nothing to enforce; Allow never touches Redis.
	ok, err := f.Allow(context.Background(), "key")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Fatalf("limiter without windows should always allow")
	}
}

func TestUnlimitedAlwaysAllows(t *testing.T) {
	ok, err := Unlimited{}.Allow(context.Background(), "any")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Fatalf("Unlimited must always allow")
	}
}

func TestFixedWindowEnforcesLimit(t *testing.T) {
	url := os.Getenv("OTP_TEST_REDIS_URL")
	if url == "" {
		t.Skip("OTP_TEST_REDIS_URL not set")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	f := NewFixedWindow(client, Window{Name: "test-minute", Limit: 3, Period: time.Minute})
	key := uuid.NewString()
	ctx := context.Background()

	for i := range 3 {
		ok, err := f.Allow(ctx, key)
		if err != nil {
			t.Fatalf("Allow #%d: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("Allow #%d should pass under the limit", i+1)
		}
	}

	ok, err := f.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow over limit: %v", err)
	}
	if ok {
		t.Fatalf("fourth call should exceed a limit of 3")
	}
}
