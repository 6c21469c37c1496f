package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewExecutor_Empty(t *testing.T) {
	e := NewExecutor()

	ran := false
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if !ran {
		t.Error("operation did not run")
	}

	if e.circuitBreaker != nil || e.retry != nil || e.rateLimiter != nil ||
		e.bulkhead != nil || e.timeout != nil {
		t.Error("empty executor should carry no patterns")
	}
}

func TestExecutor_Options(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	r := NewRetry(RetryConfig{})
	rl := NewRateLimiter(RateLimiterConfig{})
	b := NewBulkhead(BulkheadConfig{})

	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(r),
		WithRateLimiter(rl),
		WithBulkhead(b),
		WithTimeout(250*time.Millisecond),
	)

	if e.circuitBreaker != cb || e.retry != r || e.rateLimiter != rl || e.bulkhead != b {
		t.Error("options did not wire their patterns")
	}
	if e.timeout == nil || e.timeout.Config().Timeout != 250*time.Millisecond {
		t.Error("WithTimeout did not configure the timeout wrapper")
	}
}

func TestExecutor_Timeout(t *testing.T) {
	e := NewExecutor(WithTimeout(20 * time.Millisecond))

	if err := e.Execute(context.Background(), succeed); err != nil {
		t.Errorf("fast operation error = %v", err)
	}

	err := e.Execute(context.Background(), func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return nil
		}
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("slow operation error = %v, want ErrTimeout", err)
	}
}

func TestExecutor_Retry(t *testing.T) {
	e := NewExecutor(WithRetry(NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Jitter:       false,
	})))

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errBackingDown
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestExecutor_CircuitBreaker(t *testing.T) {
	e := NewExecutor(WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})))

	for i := 0; i < 2; i++ {
		_ = e.Execute(context.Background(), fail)
	}

	if err := e.Execute(context.Background(), succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}
}

func TestExecutor_RateLimiter(t *testing.T) {
	e := NewExecutor(WithRateLimiter(NewRateLimiter(RateLimiterConfig{
		Rate:  10,
		Burst: 1,
	})))

	if err := e.Execute(context.Background(), succeed); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if err := e.Execute(context.Background(), succeed); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("second Execute() error = %v, want ErrRateLimitExceeded", err)
	}
}

func TestExecutor_Bulkhead(t *testing.T) {
	e := NewExecutor(WithBulkhead(NewBulkhead(BulkheadConfig{MaxConcurrent: 1})))

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = e.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := e.Execute(context.Background(), succeed)
	close(release)

	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("Execute() error = %v, want ErrBulkheadFull", err)
	}
}

// The shape the engine uses for its backing tier, plus retry: the retry
// sits inside the breaker so retried failures count once against it.
func TestExecutor_Composed(t *testing.T) {
	e := NewExecutor(
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{Rate: 1000, Burst: 10})),
		WithBulkhead(NewBulkhead(BulkheadConfig{MaxConcurrent: 10})),
		WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 10})),
		WithRetry(NewRetry(RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			Jitter:       false,
		})),
		WithTimeout(time.Second),
	)

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errBackingDown
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}
