package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterItem struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterCache holds one token-bucket limiter per client key, safe for
// concurrent access. Entries idle longer than the idle window are dropped.
type LimiterCache struct {
	mu        sync.Mutex
	items     map[string]*limiterItem
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLimiterCache allows perMinute requests per key with the given burst.
func NewLimiterCache(perMinute, burst int, idle time.Duration) *LimiterCache {
	if burst < 1 {
		burst = 1
	}
	return &LimiterCache{
		items: make(map[string]*limiterItem),
		limit: rate.Limit(float64(perMinute) / 60),
		burst: burst,
		idle:  idle,
		now:   time.Now,
	}
}

// Allow reports whether a request for key may proceed now.
func (c *LimiterCache) Allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) > c.idle {
		c.sweepLocked(now)
	}

	it, ok := c.items[key]
	if !ok {
		it = &limiterItem{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.items[key] = it
	}
	it.lastSeen = now
	return it.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (c *LimiterCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LimiterCache) sweepLocked(now time.Time) {
	for k, it := range c.items {
		if now.Sub(it.lastSeen) > c.idle {
			delete(c.items, k)
		}
	}
	c.lastSweep = now
}

// clientIP returns the host part of RemoteAddr, which RealIP may already
// have replaced with a bare address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
