package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// userLimiters hands out one token bucket per user id. Buckets unused for
// idleTTL are dropped on a later lookup.
type userLimiters struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newUserLimiters(perSecond float64, burst int) *userLimiters {
	if burst <= 0 {
		burst = 1
	}
	return &userLimiters{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		idleTTL:  limiterIdleTTL,
		now:      time.Now,
	}
}

func (u *userLimiters) get(key string) *rate.Limiter {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	if now.Sub(u.lastSweep) >= u.idleTTL/2 {
		u.sweep(now)
	}
	e, ok := u.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(u.rate, u.burst)}
		u.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// sweep must be called with mu held.
func (u *userLimiters) sweep(now time.Time) {
	for key, e := range u.limiters {
		if now.Sub(e.lastSeen) >= u.idleTTL {
			delete(u.limiters, key)
		}
	}
	u.lastSweep = now
}

func (u *userLimiters) size() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.limiters)
}

// RateLimit limits requests per authenticated user. It must run after
// Authenticate. A non-positive rate disables limiting.
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiters := newUserLimiters(perSecond, burst)
	return func(c *gin.Context) {
		key := userID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !limiters.get(key).Allow() {
			log.Warn().Str("user_id", key).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			return
		}
		c.Next()
	}
}
