package tmdb

import (
	"context"
	"testing"
	"time"
)

func TestThrottleFirstCallIsImmediate(t *testing.T) {
	throttle := NewThrottle(time.Second)
	startedAt := time.Now()
	if err := throttle.Wait(context.Background()); err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if elapsed := time.Since(startedAt); elapsed > 100*time.Millisecond {
		t.Fatalf("first wait took %v", elapsed)
	}
}

func TestThrottleSpacesBackToBackCalls(t *testing.T) {
	const interval = 40 * time.Millisecond
	throttle := NewThrottle(interval)

	var previous time.Time
	for i := 0; i < 4; i++ {
		if err := throttle.Wait(context.Background()); err != nil {
			t.Fatalf("wait error: %v", err)
		}
		now := time.Now()
		if i > 0 {
			if gap := now.Sub(previous); gap < interval-time.Millisecond {
				t.Fatalf("call %d followed previous after %v, want >= %v", i, gap, interval)
			}
		}
		previous = now
	}
}

func TestThrottleRespectsContext(t *testing.T) {
	throttle := NewThrottle(time.Hour)
	if err := throttle.Wait(context.Background()); err != nil {
		t.Fatalf("wait error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := throttle.Wait(ctx); err == nil {
		t.Fatal("expected error when the next permit is beyond the deadline")
	}
}

func TestThrottleDefaultInterval(t *testing.T) {
	if got := NewThrottle(0).Interval(); got != DefaultMinInterval {
		t.Fatalf("interval = %v, want %v", got, DefaultMinInterval)
	}
}

func TestThrottleDefaultSpacingBetweenCallStarts(t *testing.T) {
	throttle := NewThrottle(DefaultMinInterval)
	if err := throttle.Wait(context.Background()); err != nil {
		t.Fatalf("wait error: %v", err)
	}
	first := time.Now()
	if err := throttle.Wait(context.Background()); err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if gap := time.Since(first); gap < DefaultMinInterval-time.Millisecond {
		t.Fatalf("second call started after %v, want >= %v", gap, DefaultMinInterval)
	}
}
