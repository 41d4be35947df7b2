package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/FocuswithJustin/versemem/internal/logging"
)

// tokenBucket refills at refillRate tokens per second up to capacity.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64
	last       time.Time
}

func newTokenBucket(capacity, refillRate float64) *tokenBucket {
	return &tokenBucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillRate,
		last:       time.Now(),
	}
}

func (tb *tokenBucket) refill(now time.Time) {
	tb.tokens = min(tb.capacity, tb.tokens+now.Sub(tb.last).Seconds()*tb.refillRate)
	tb.last = now
}

func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *tokenBucket) remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	return int(tb.tokens)
}

func (tb *tokenBucket) idleSince() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.last
}

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*tokenBucket
	perMinute  int
	burst      int
	cleanupTTL time.Duration
}

// NewRateLimiter allows perMinute requests per IP with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 10
	}
	return &RateLimiter{
		buckets:    make(map[string]*tokenBucket),
		perMinute:  perMinute,
		burst:      burst,
		cleanupTTL: 5 * time.Minute,
	}
}

func (rl *RateLimiter) bucket(ip string) *tokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		b = newTokenBucket(float64(rl.burst), float64(rl.perMinute)/60)
		rl.buckets[ip] = b
	}
	return b
}

// Allow reports whether ip may make another request.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.bucket(ip).allow()
}

// Cleanup drops idle buckets every minute until ctx is done.
func (rl *RateLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if now.Sub(b.idleSince()) > rl.cleanupTTL {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		b := rl.bucket(ip)
		if !b.allow() {
			logging.SecurityEvent("rate_limited", "api", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(b.remaining()))
		next.ServeHTTP(w, r)
	})
}

// clientIP takes the leftmost valid X-Forwarded-For address, then
// X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if net.ParseIP(host) != nil {
		return host
	}
	return "unknown"
}
