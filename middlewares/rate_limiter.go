package middlewares

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LimiterConfig is one throttling tier. RPS <= 0 turns the tier off.
type LimiterConfig struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
}

func (c LimiterConfig) Enabled() bool { return c.RPS > 0 }

// KeySelector names the bucket a request draws from.
type KeySelector func(c *gin.Context) string

// ByClientIP buckets per client address within scope, e.g. "ip" or "auth".
func ByClientIP(scope string) KeySelector {
	return func(c *gin.Context) string { return scope + ":" + c.ClientIP() }
}

// ByUser buckets per authenticated caller and falls back to the client
// address when Authenticate has not run.
func ByUser(c *gin.Context) string {
	if uid := UserID(c); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.ClientIP()
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter is an in-memory token bucket per key.
type RateLimiter struct {
	conf LimiterConfig
	now  func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a sweeper that drops buckets idle for longer than
// IdleTTL. Close stops it.
func NewRateLimiter(conf LimiterConfig) *RateLimiter {
	if conf.IdleTTL <= 0 {
		conf.IdleTTL = 10 * time.Minute
	}
	rl := &RateLimiter{
		conf:    conf,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go rl.sweep(conf.IdleTTL / 2)
	return rl
}

func (rl *RateLimiter) Close() { rl.stopOnce.Do(func() { close(rl.stop) }) }

func (rl *RateLimiter) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-t.C:
			rl.evict(now)
		}
	}
}

func (rl *RateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		if now.Sub(b.seen) > rl.conf.IdleTTL {
			delete(rl.buckets, key)
		}
	}
}

// take draws one token for key. When the bucket is empty it returns how long
// until a token would be available.
func (rl *RateLimiter) take(key string) (ok bool, wait time.Duration) {
	now := rl.now()
	rl.mu.Lock()
	b, found := rl.buckets[key]
	if !found {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(rl.conf.RPS), rl.conf.Burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	rl.mu.Unlock()

	r := b.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Middleware answers 429 with a Retry-After in whole seconds once key's
// bucket is empty.
func (rl *RateLimiter) Middleware(key KeySelector) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := rl.take(key(c))
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
