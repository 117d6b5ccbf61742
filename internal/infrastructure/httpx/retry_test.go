package httpx

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_RetriesRateLimited(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Millisecond),
		Retryable:   func(err error) bool { return errors.Is(err, ErrRateLimited) },
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return ErrRateLimited
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryPolicy_StopsOnNonRetryable(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Millisecond),
		Retryable:   func(err error) bool { return errors.Is(err, ErrRateLimited) },
	}

	boom := errors.New("boom")
	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Errorf("non-retryable error should stop after 1 attempt, got %d", calls)
	}
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Millisecond),
		Retryable:   func(error) bool { return true },
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return ErrRateLimited
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryPolicy_HonorsContext(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 5,
		Backoff:     LinearBackoff(time.Hour),
		Retryable:   func(error) bool { return true },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := policy.Do(ctx, func() error { return ErrRateLimited })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
}
