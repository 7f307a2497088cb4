package adapter

import (
	"context"
	"errors"
	"testing"
	"time"
)

func shortBackoff(t *testing.T) {
	t.Helper()
	saved := backoffBase
	backoffBase = time.Millisecond
	t.Cleanup(func() { backoffBase = saved })
}

func TestRetryFirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryTransientThenSuccess(t *testing.T) {
	shortBackoff(t)

	calls := 0
	err := Retry(context.Background(), 3, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhausted(t *testing.T) {
	shortBackoff(t)

	transient := errors.New("connection refused")
	calls := 0
	err := Retry(context.Background(), 2, func(context.Context) error {
		calls++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("Retry() error = %v, want wrapped last error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 1 initial + 2 retries", calls)
	}
}

func TestRetryPermanentStopsImmediately(t *testing.T) {
	rejected := errors.New("payload rejected")
	calls := 0
	err := Retry(context.Background(), 5, func(context.Context) error {
		calls++
		return Permanent(rejected)
	})
	if !errors.Is(err, rejected) {
		t.Fatalf("Retry() error = %v, want the permanent cause", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries on permanent errors)", calls)
	}
}

func TestRetryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 5, func(context.Context) error {
		calls++
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("Retry() succeeded with a canceled context")
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestPermanentNil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should stay nil")
	}
}
