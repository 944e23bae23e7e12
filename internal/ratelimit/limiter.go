// Package ratelimit implements login admission control: a per-key attempt
// counter over a fixed window that turns into a lockout once the allowance
// is exceeded. Counters live in Redis so every instance sees the same state.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript increments the key, arms the window on the first hit and
// re-arms it with the block duration on the first hit past the allowance.
// Returns {count, pttl}.
var consumeScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
elseif current == tonumber(ARGV[3]) + 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {current, redis.call('PTTL', KEYS[1])}
`)

// Config sizes the limiter.
type Config struct {
	Prefix string
	Points int
	Window time.Duration
	Block  time.Duration
}

// Result describes one consume decision.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter consumes points against Redis counters.
type Limiter struct {
	rdb redis.Scripter
	cfg Config
}

// New creates a limiter. Zero config values fall back to 5 points per
// minute with a 15 minute block.
func New(rdb redis.Scripter, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "login_fail"
	}
	if cfg.Points <= 0 {
		cfg.Points = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Block <= 0 {
		cfg.Block = 15 * time.Minute
	}
	return &Limiter{rdb: rdb, cfg: cfg}
}

// Consume takes one point for key.
func (l *Limiter) Consume(ctx context.Context, key string) (Result, error) {
	vals, err := consumeScript.Run(ctx, l.rdb,
		[]string{l.cfg.Prefix + ":" + key},
		l.cfg.Window.Milliseconds(), l.cfg.Block.Milliseconds(), l.cfg.Points,
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("consume rate limit point: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("consume rate limit point: unexpected reply %v", vals)
	}

	count, pttl := int(vals[0]), time.Duration(vals[1])*time.Millisecond
	if count <= l.cfg.Points {
		return Result{Allowed: true, Remaining: l.cfg.Points - count}, nil
	}
	if pttl < 0 {
		pttl = l.cfg.Block
	}
	return Result{Allowed: false, RetryAfter: pttl}, nil
}
