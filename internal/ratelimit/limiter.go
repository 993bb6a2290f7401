// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"activity-signup/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

var ErrLimiterUnavailable = errors.New("RATE_LIMITER_UNAVAILABLE")

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int64
	Count      int64
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter is a fixed-window request counter kept in Redis.
type Limiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
	logger logger.Logger
	now    func() time.Time
	prefix string
}

type Option func(*Limiter)

// WithClock overrides the time source used to pick the window.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithPrefix changes the key prefix (default "ratelimit").
func WithPrefix(prefix string) Option {
	return func(l *Limiter) { l.prefix = prefix }
}

func New(client *redis.Client, limit int, window time.Duration, log logger.Logger, opts ...Option) *Limiter {
	if window < time.Second {
		window = time.Second
	}
	l := &Limiter{
		redis:  client,
		limit:  int64(limit),
		window: window,
		logger: log.WithFields(map[string]interface{}{"component": "ratelimit"}),
		now:    time.Now,
		prefix: "ratelimit",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the Redis key counting client's requests in the window
// containing t.
func (l *Limiter) Key(client string, t time.Time) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, client, t.Unix()/int64(l.window/time.Second))
}

// Allow counts one request for client. When Redis fails the request is
// allowed and ErrLimiterUnavailable is returned alongside the decision.
func (l *Limiter) Allow(ctx context.Context, client string) (Decision, error) {
	now := l.now()
	key := l.Key(client, now)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request", map[string]interface{}{
			"error":  err,
			"client": client,
		})
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn("failed to set rate limit expiry", map[string]interface{}{
				"error": err,
				"key":   key,
			})
		}
	}

	d := Decision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Count:     count,
		Remaining: l.limit - count,
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = l.retryAfter(now)
	}
	return d, nil
}

func (l *Limiter) retryAfter(now time.Time) time.Duration {
	windowSecs := int64(l.window / time.Second)
	elapsed := now.Unix() % windowSecs
	return time.Duration(windowSecs-elapsed) * time.Second
}
