package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"toursApi/internal/shared/apperror"
)

const MessageTooManyRequests = "Too many requests from this IP, please try again in an hour!"

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than the window are dropped.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	max       int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows max requests per window and refills evenly.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = time.Hour
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.window {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.window {
				delete(rl.visitors, key)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.max)), rl.max)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Middleware answers 429 once an IP runs out of requests.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limiter := rl.limiter(c.RealIP())
			allowed := limiter.AllowN(rl.now(), 1)
			remaining := int(limiter.TokensAt(rl.now()))
			if remaining < 0 {
				remaining = 0
			}
			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(rl.max))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				header.Set("Retry-After", strconv.Itoa(int((rl.window/time.Duration(rl.max)).Seconds())+1))
				return apperror.TooManyRequests(MessageTooManyRequests)
			}
			return next(c)
		}
	}
}
