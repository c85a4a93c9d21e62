package ratelimit

import (
	"context"
	"fmt"
	"time"
)

type ActionConfig struct {
	Limit  int64
	Window time.Duration
}

// Counter is the storage a Limiter counts in
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type Limiter struct {
	counter Counter
	limits  map[string]ActionConfig
	// fallback applies to actions missing from limits
	fallback ActionConfig
}

type CheckResult struct {
	Allowed   bool  `json:"allowed"`
	Remaining int64 `json:"remaining"`
	ResetAt   int64 `json:"reset_at"`
	Limit     int64 `json:"limit"`
}

func NewLimiter(counter Counter, limits map[string]ActionConfig) *Limiter {
	return &Limiter{
		counter:  counter,
		limits:   limits,
		fallback: ActionConfig{Limit: 100, Window: time.Minute},
	}
}

// PerMinute builds a single-action limit table
func PerMinute(action string, limit int64) map[string]ActionConfig {
	return map[string]ActionConfig{
		action: {Limit: limit, Window: time.Minute},
	}
}

func (l *Limiter) Check(ctx context.Context, clientID, action string) (*CheckResult, error) {
	config, ok := l.limits[action]
	if !ok {
		config = l.fallback
	}

	key := fmt.Sprintf("rate:%s:%s", clientID, action)

	count, ttl, err := l.counter.Incr(ctx, key, config.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to increment counter: %w", err)
	}
	if ttl < 0 {
		ttl = config.Window
	}

	remaining := config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &CheckResult{
		Allowed:   count <= config.Limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(ttl).Unix(),
		Limit:     config.Limit,
	}, nil
}
