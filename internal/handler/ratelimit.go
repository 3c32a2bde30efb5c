package handler

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/pavelanni/revisor/internal/i18n"
)

// Default limits for test generation, per client address.
const (
	DefaultGenerateRate  = 0.5
	DefaultGenerateBurst = 3
)

// rateLimiter keeps one token bucket per client address.
type rateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	rate   rate.Limit
	burst  int
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if perSecond <= 0 {
		perSecond = DefaultGenerateRate
	}
	if burst <= 0 {
		burst = DefaultGenerateBurst
	}
	return &rateLimiter{
		limits: make(map[string]*rate.Limiter),
		rate:   rate.Limit(perSecond),
		burst:  burst,
	}
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow reports whether a request from key may proceed now.
func (rl *rateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// middleware rejects requests over the limit with 429.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, i18n.T(r.Context(), "ErrTooManyRequests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
