package middleware

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/staff-access-control/internal/config"
)

// LoginRateLimit returns a fixed-window rate limiter for the login
// endpoint, counting attempts per client IP in redis.  The first attempt
// in a window sets the key's TTL; once the counter passes MaxAttempts the
// request is rejected with 429 and a Retry-After hint.  When redis is
// unavailable the limiter fails open so an outage never locks everyone
// out.
func LoginRateLimit(cfg config.LoginRateConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ip := c.RealIP()
            if ip == "" {
                ip = "unknown"
            }
            key := cfg.Prefix + ":ip:" + ip
            ctx := c.Request().Context()

            count, err := rdb.Incr(ctx, key).Result()
            if err != nil {
                c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
                return next(c)
            }
            if count == 1 {
                // First attempt in this window owns the expiry.
                if err := rdb.Expire(ctx, key, cfg.Window).Err(); err != nil {
                    c.Logger().Warnf("[ratelimit] expire failed for key=%s: %v", key, err)
                }
            }
            remaining := int64(cfg.MaxAttempts) - count
            if remaining < 0 {
                remaining = 0
            }
            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxAttempts))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if count > int64(cfg.MaxAttempts) {
                retry := cfg.Window
                if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
                    retry = ttl
                }
                secs := int(retry / time.Second)
                if secs < 1 {
                    secs = 1
                }
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too many login attempts",
                    "code":        "rate_limited",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}
