package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// loginLimiter tracks one token bucket per client IP.
type loginLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func (l *loginLimiter) get(ip string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(ip); ok {
		return limiter.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	actual, _ := l.limiters.LoadOrStore(ip, limiter)
	return actual.(*rate.Limiter)
}

// LoginRateLimiter limits credential attempts per client IP:
// 5 attempts per 15 minutes, matching the gate's single-attempt
// no-backoff failure semantics.
func LoginRateLimiter() fiber.Handler {
	limiter := &loginLimiter{
		limit: rate.Every(15 * time.Minute / 5),
		burst: 5,
	}

	return func(c *fiber.Ctx) error {
		if !limiter.get(c.IP()).Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many login attempts, try again later",
			})
		}
		return c.Next()
	}
}
