package middleware

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Fixed-window counter: INCR the per-IP key, set the expiry on the first
// hit, reject once the count exceeds the limit. Returns {count, ttl}.
var loginWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local window = tonumber(ARGV[1])

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('EXPIRE', key, window)
	end
	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		redis.call('EXPIRE', key, window)
		ttl = window
	end
	return { count, ttl }
`)

// LoginRateLimit limits login attempts per client IP inside a fixed
// window. A nil client or a Redis failure lets the request through; the
// limiter is an abuse brake, not a dependency the login path can afford
// to be down with.
func LoginRateLimit(rdb *redis.Client, windowSec, max int) echo.MiddlewareFunc {
	if rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := "rl:login:ip:" + ip

			vals, err := loginWindowScript.Run(c.Request().Context(), rdb,
				[]string{key}, windowSec).Int64Slice()
			if err != nil || len(vals) != 2 {
				log.Printf("ratelimit: redis error for %s: %v", key, err)
				return next(c)
			}
			count, ttl := vals[0], vals[1]

			remaining := int64(max) - count
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(max) {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(ttl, 10))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"retry_after": ttl,
				})
			}
			return next(c)
		}
	}
}
