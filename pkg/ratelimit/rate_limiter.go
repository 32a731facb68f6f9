package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type LimitType string

const (
	LimitTypeDefault LimitType = "default"
	LimitTypeBooking LimitType = "booking"
	LimitTypePayment LimitType = "payment"
)

// Config drives the fixed-window limiter. Payment limits are the tightest
// since every initiate opens a gateway session.
type Config struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	BookingRequests int           `json:"booking_requests"`
	PaymentRequests int           `json:"payment_requests"`
}

// Result represents rate limit check result
type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client *redis.Client
	config *Config
}

func NewRateLimiter(client *redis.Client, config *Config) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// IsAllowed checks whether the client may make another request in the
// current window.
func (r *RateLimiter) IsAllowed(ctx context.Context, clientIP string, limitType LimitType) (*Result, error) {
	limit := r.getLimit(limitType)

	if !r.config.Enabled {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: time.Now().Add(r.config.WindowDuration).Unix(),
		}, nil
	}

	key := fmt.Sprintf("thticket:ratelimit:%s:%s", clientIP, limitType)
	return r.checkLimit(ctx, key, limit)
}

// checkLimit performs the fixed-window check. INCR and EXPIRE run in one Lua
// script so a crash between them cannot leave a counter without a TTL.
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int) (*Result, error) {
	luaScript := `
		local key = KEYS[1]
		local window_seconds = tonumber(ARGV[1])

		local count = redis.call('INCR', key)
		if count == 1 then
			redis.call('EXPIRE', key, window_seconds)
		end

		return count
	`

	result, err := r.client.Eval(ctx, luaScript, []string{key},
		int(r.config.WindowDuration.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("redis eval failed: %w", err)
	}

	count, ok := result.(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected redis response")
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   int(count) <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: time.Now().Add(r.config.WindowDuration).Unix(),
	}, nil
}

func (r *RateLimiter) getLimit(limitType LimitType) int {
	switch limitType {
	case LimitTypeBooking:
		return r.config.BookingRequests
	case LimitTypePayment:
		return r.config.PaymentRequests
	default:
		return r.config.DefaultRequests
	}
}
