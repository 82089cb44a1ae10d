package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/phleb-loss-tracker/internal/domain"
)

// RateLimiter hands out one token bucket per client IP. The least recently
// seen clients are evicted once MaxClients buckets exist.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter from the rate limit settings.
func NewRateLimiter(cfg domain.RateLimitConfig) (*RateLimiter, error) {
	size := cfg.MaxClients
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		limiters: cache,
		limit:    rate.Limit(cfg.RPS),
		burst:    cfg.Burst,
	}, nil
}

// Allow reports whether the client may make a request now.
func (r *RateLimiter) Allow(client string) bool {
	r.mu.Lock()
	limiter, ok := r.limiters.Get(client)
	if !ok {
		limiter = rate.NewLimiter(r.limit, r.burst)
		r.limiters.Add(client, limiter)
	}
	r.mu.Unlock()

	return limiter.Allow()
}

// Clients returns the number of tracked clients.
func (r *RateLimiter) Clients() int {
	return r.limiters.Len()
}

// Middleware rejects requests over the client's budget with 429.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, domain.NewAppError(
				domain.ErrRateLimit, "Too many requests", "", c.GetString(CorrelationIDKey),
			))
			return
		}
		c.Next()
	}
}
