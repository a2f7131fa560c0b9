package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky")

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	res := Do(context.Background(), Policy{Retries: 3, Backoff: time.Millisecond}, func(context.Context, int) (string, error) {
		calls++
		if calls < 3 {
			return "", errFlaky
		}
		return "ok", nil
	})
	if !res.OK() || res.Value != "ok" || res.Attempts != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDo_Exhausted(t *testing.T) {
	calls := 0
	res := Do(context.Background(), Policy{Retries: 3, Backoff: time.Millisecond}, func(context.Context, int) (int, error) {
		calls++
		return 0, errFlaky
	})
	if res.Outcome != Exhausted || calls != 4 {
		t.Fatalf("outcome=%s calls=%d, want exhausted after 4", res.Outcome, calls)
	}
	if !errors.Is(res.Err, errFlaky) {
		t.Fatalf("expected last error, got %v", res.Err)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	res := Do(context.Background(), DefaultPolicy(), func(context.Context, int) (int, error) {
		calls++
		return 0, Stop(errFlaky)
	})
	if res.Outcome != Permanent || calls != 1 {
		t.Fatalf("outcome=%s calls=%d", res.Outcome, calls)
	}
	if !errors.Is(res.Err, errFlaky) {
		t.Fatalf("Stop must keep the cause, got %v", res.Err)
	}
}

func TestDo_CanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	res := Do(ctx, Policy{Retries: 3, Backoff: time.Hour}, func(context.Context, int) (int, error) {
		cancel()
		return 0, errFlaky
	})
	if res.Outcome != Canceled || res.Attempts != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDo_LinearBackoff(t *testing.T) {
	var stamps []time.Time
	Do(context.Background(), Policy{Retries: 2, Backoff: 20 * time.Millisecond}, func(context.Context, int) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errFlaky
	})
	if len(stamps) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stamps))
	}
	if gap := stamps[2].Sub(stamps[1]); gap < 40*time.Millisecond {
		t.Fatalf("second pause %v shorter than 2*backoff", gap)
	}
}
