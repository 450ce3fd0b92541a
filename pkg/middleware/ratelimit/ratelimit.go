package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/shirin_shop/pkg/logging"
)

// INCR + PEXPIRE on first hit, returns {count, pttl}.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

type KeyFunc func(c echo.Context) string

func KeyByIP(prefix string) KeyFunc {
	return func(c echo.Context) string {
		ip := c.RealIP()
		if ip == "" {
			ip = "unknown"
		}
		return "rl:" + prefix + ":ip:" + ip
	}
}

type Result struct {
	Count   int
	Allowed bool
	Reset   time.Duration
}

// Limiter is a fixed-window counter stored in redis. A nil *Limiter allows
// everything.
type Limiter struct {
	rdb    redis.Scripter
	max    int
	window time.Duration
}

// New returns nil when rdb is nil or the limits are not positive.
func New(rdb redis.Scripter, max int, window time.Duration) *Limiter {
	if rdb == nil || max <= 0 || window <= 0 {
		return nil
	}
	return &Limiter{rdb: rdb, max: max, window: window}
}

func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	if l == nil {
		return Result{Allowed: true}, nil
	}
	vals, err := incrExpireScript.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{Allowed: true}, err
	}
	res := Result{}
	if len(vals) > 0 {
		res.Count = int(vals[0])
	}
	if len(vals) > 1 && vals[1] > 0 {
		res.Reset = time.Duration(vals[1]) * time.Millisecond
	}
	res.Allowed = res.Count <= l.max
	return res, nil
}

// Middleware fails open when redis is unavailable.
func (l *Limiter) Middleware(keyFn KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if l == nil || keyFn == nil {
			return next
		}
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}
			ctx := c.Request().Context()
			res, err := l.Allow(ctx, keyFn(c))
			if err != nil {
				logging.FromContext(ctx).Warn("rate_limit", "status", "fail", "reason", "redis error", "error", err)
				return next(c)
			}

			resetSec := int((res.Reset + time.Second - 1) / time.Second)
			remaining := l.max - res.Count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

			if !res.Allowed {
				if resetSec > 0 {
					h.Set("Retry-After", strconv.Itoa(resetSec))
				}
				logging.FromContext(ctx).Warn("rate_limit", "status", "fail", "reason", "limit exceeded", "count", res.Count)
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
			}
			return next(c)
		}
	}
}
