package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePinger struct {
	err   error
	delay time.Duration
}

func (p *fakePinger) Ping(ctx context.Context) error {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.err
}

func TestNewBackingChecker_Defaults(t *testing.T) {
	c := NewBackingChecker(BackingCheckerConfig{}, nil)

	if c.config.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", c.config.Timeout)
	}
	if c.Name() != "backing-store" {
		t.Errorf("Name() = %q, want backing-store", c.Name())
	}
}

func TestBackingChecker_NilPinger(t *testing.T) {
	c := NewBackingChecker(BackingCheckerConfig{}, nil)

	result := c.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Check() status = %v, want StatusHealthy", result.Status)
	}
	if result.Message != "no backing store configured" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestBackingChecker_Reachable(t *testing.T) {
	c := NewBackingChecker(BackingCheckerConfig{}, &fakePinger{})

	result := c.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Check() status = %v, want StatusHealthy", result.Status)
	}
}

func TestBackingChecker_UnreachableDegrades(t *testing.T) {
	pinger := &fakePinger{err: errors.New("connection refused")}
	c := NewBackingChecker(BackingCheckerConfig{}, pinger)

	result := c.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("Check() status = %v, want StatusDegraded", result.Status)
	}
}

func TestBackingChecker_UnhealthyOnFailure(t *testing.T) {
	pingErr := errors.New("connection refused")
	c := NewBackingChecker(BackingCheckerConfig{UnhealthyOnFailure: true}, &fakePinger{err: pingErr})

	result := c.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Check() status = %v, want StatusUnhealthy", result.Status)
	}
	if !errors.Is(result.Error, pingErr) {
		t.Errorf("Error = %v, want %v", result.Error, pingErr)
	}
}

func TestBackingChecker_TimeoutBoundsPing(t *testing.T) {
	pinger := &fakePinger{delay: 5 * time.Second}
	c := NewBackingChecker(BackingCheckerConfig{Timeout: 50 * time.Millisecond}, pinger)

	start := time.Now()
	result := c.Check(context.Background())
	elapsed := time.Since(start)

	if result.Status != StatusDegraded {
		t.Errorf("Check() status = %v, want StatusDegraded", result.Status)
	}
	if elapsed > time.Second {
		t.Errorf("check took %v, timeout not applied", elapsed)
	}
}
