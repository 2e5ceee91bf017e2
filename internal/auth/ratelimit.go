package auth

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig bounds failed sign-ins per address and username. Zero
// fields take the DefaultRateLimitConfig value.
type RateLimitConfig struct {
	MaxAttempts     int
	WindowDuration  time.Duration
	LockoutDuration time.Duration
	CleanupInterval time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts:     5,
		WindowDuration:  15 * time.Minute,
		LockoutDuration: 30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

func (cfg RateLimitConfig) withDefaults() RateLimitConfig {
	d := DefaultRateLimitConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = d.MaxAttempts
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = d.WindowDuration
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = d.LockoutDuration
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = d.CleanupInterval
	}
	return cfg
}

type loginKey struct {
	ip       string
	username string
}

type failureStreak struct {
	count       int
	since       time.Time
	lockedUntil time.Time
}

func (f *failureStreak) locked(now time.Time) bool {
	return now.Before(f.lockedUntil)
}

// RateLimiter locks an address and username pair out of the login form after
// too many failures inside a window. The account lockout in Service applies
// on top of it.
type RateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu       sync.Mutex
	failures map[loginKey]*failureStreak

	stopOnce sync.Once
	done     chan struct{}
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		failures: make(map[loginKey]*failureStreak),
		done:     make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop ends the background sweep. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Allow reports whether the pair may try to sign in, and if not, how long
// it has to wait.
func (rl *RateLimiter) Allow(ip, username string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	streak, ok := rl.failures[loginKey{ip, username}]
	switch {
	case !ok:
		return true, 0
	case streak.locked(now):
		return false, streak.lockedUntil.Sub(now)
	case now.Sub(streak.since) > rl.cfg.WindowDuration, streak.count < rl.cfg.MaxAttempts:
		return true, 0
	}
	return false, rl.cfg.LockoutDuration
}

// RecordFailure counts a failed sign-in and reports whether it started a
// lockout.
func (rl *RateLimiter) RecordFailure(ip, username string) (bool, time.Duration) {
	now := rl.now()
	key := loginKey{ip, username}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	streak, ok := rl.failures[key]
	if !ok || now.Sub(streak.since) > rl.cfg.WindowDuration {
		streak = &failureStreak{since: now}
		rl.failures[key] = streak
	}
	streak.count++

	if streak.count < rl.cfg.MaxAttempts {
		return false, 0
	}
	streak.lockedUntil = now.Add(rl.cfg.LockoutDuration)
	return true, rl.cfg.LockoutDuration
}

func (rl *RateLimiter) RecordSuccess(ip, username string) {
	rl.mu.Lock()
	delete(rl.failures, loginKey{ip, username})
	rl.mu.Unlock()
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.forgetStale()
		case <-rl.done:
			return
		}
	}
}

// forgetStale drops streaks whose window and lockout have both run out.
func (rl *RateLimiter) forgetStale() {
	now := rl.now()
	horizon := rl.cfg.WindowDuration + rl.cfg.LockoutDuration

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, streak := range rl.failures {
		if now.Sub(streak.since) > horizon && !streak.locked(now) {
			delete(rl.failures, key)
		}
	}
}

// ClientLimiter throttles API requests per client IP with a token bucket.
type ClientLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	clients  map[string]*clientBucket
	idleTTL  time.Duration
	lastSeen func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter allows perSecond requests per client with the given burst.
// A non-positive rate disables throttling.
func NewClientLimiter(perSecond float64, burst int) *ClientLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ClientLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		clients:  make(map[string]*clientBucket),
		idleTTL:  10 * time.Minute,
		lastSeen: time.Now,
	}
}

// Allow reports whether the client may make another request now.
func (cl *ClientLimiter) Allow(clientIP string) bool {
	if cl.limit <= 0 {
		return true
	}

	now := cl.lastSeen()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	bucket, ok := cl.clients[clientIP]
	if !ok {
		cl.evictIdle(now)
		bucket = &clientBucket{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[clientIP] = bucket
	}
	bucket.lastSeen = now

	return bucket.limiter.AllowN(now, 1)
}

// evictIdle drops buckets nobody used for idleTTL. Callers hold mu.
func (cl *ClientLimiter) evictIdle(now time.Time) {
	for ip, bucket := range cl.clients {
		if now.Sub(bucket.lastSeen) > cl.idleTTL {
			delete(cl.clients, ip)
		}
	}
}

// Middleware rejects clients over their rate with 429.
func (cl *ClientLimiter) Middleware() gin.HandlerFunc {
	retryAfter := "1"
	if cl.limit > 0 && cl.limit < 1 {
		retryAfter = strconv.Itoa(int(1/float64(cl.limit)) + 1)
	}

	return func(c *gin.Context) {
		if !cl.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
