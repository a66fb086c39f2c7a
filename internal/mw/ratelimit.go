package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// IPRateLimiter stores a rate limiter for each client IP. Limiters of clients
// that stay quiet for longer than the idle period are evicted.
type IPRateLimiter struct {
	limiters *cache.Cache
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int, idle time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: cache.New(idle, 2*idle),
		r:        r,
		b:        b,
	}
}

// GetLimiter returns the rate limiter for an IP address, creating it on first
// use. Every lookup extends the limiter's lifetime.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if v, found := i.limiters.Get(ip); found {
		limiter := v.(*rate.Limiter)
		i.limiters.SetDefault(ip, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(i.r, i.b)
	i.limiters.SetDefault(ip, limiter)
	return limiter
}

// size returns the number of tracked clients.
func (i *IPRateLimiter) size() int {
	return i.limiters.ItemCount()
}

// RateLimiter is a middleware for IP-based rate limiting. A non-positive
// rate disables limiting.
func RateLimiter(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.r <= 0 {
			c.Next()
			return
		}
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
