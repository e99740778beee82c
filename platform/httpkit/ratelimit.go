package httpkit

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gin-gonic/gin"
)

// AuthRateLimiter applies a per-client-IP token bucket to sensitive routes
// such as login. Buckets idle for longer than staleAfter are evicted.
type AuthRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	limit   rate.Limit
	burst   int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const staleAfter = 10 * time.Minute

// NewAuthRateLimiter creates a limiter allowing rps requests per second with
// the given burst per client IP.
func NewAuthRateLimiter(rps float64, burst int) *AuthRateLimiter {
	return &AuthRateLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

// RateLimit returns the gin handler enforcing the limit.
func (l *AuthRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			Error(c, http.StatusTooManyRequests, "too many requests", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (l *AuthRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) > staleAfter {
			delete(l.clients, key)
		}
	}

	bucket, ok := l.clients[ip]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = bucket
	}
	bucket.lastSeen = now

	return bucket.limiter.Allow()
}
