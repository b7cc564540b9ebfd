package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdle  = 10 * time.Minute
	limiterSweep = 5 * time.Minute
)

type clientLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterSet keeps one token bucket per client key.
type limiterSet struct {
	rate  rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

func newLimiterSet(r rate.Limit, b int) *limiterSet {
	return &limiterSet{rate: r, burst: b, clients: make(map[string]*clientLimiter)}
}

func (s *limiterSet) allow(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.clients[key]
	if !ok {
		cl = &clientLimiter{lim: rate.NewLimiter(s.rate, s.burst)}
		s.clients[key] = cl
	}
	cl.seen = now
	return cl.lim.AllowN(now, 1)
}

// sweep forgets clients not seen within idle and returns how many it dropped.
func (s *limiterSet) sweep(now time.Time, idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, cl := range s.clients {
		if now.Sub(cl.seen) > idle {
			delete(s.clients, k)
			n++
		}
	}
	return n
}

// RateLimit throttles each client IP to r requests per second with burst b.
// A non-positive r disables it. Rejected calls get 429 with Retry-After.
// The sweeper goroutine stops when ctx is done.
func RateLimit(ctx context.Context, r rate.Limit, b int) gin.HandlerFunc {
	if r <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	set := newLimiterSet(r, b)
	retryAfter := strconv.Itoa(int(math.Ceil(1 / float64(r))))

	go func() {
		t := time.NewTicker(limiterSweep)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				set.sweep(now, limiterIdle)
			}
		}
	}()

	return func(c *gin.Context) {
		if !set.allow(c.ClientIP(), time.Now()) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
