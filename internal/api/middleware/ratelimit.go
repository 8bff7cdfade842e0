package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/notevault/notevault/internal/config"
	"github.com/notevault/notevault/internal/utils"
	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter caps each client to Max requests per Window, before any
// authentication happens. Over-limit requests get 429 immediately.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	window  time.Duration
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	max := cfg.Max
	if max <= 0 {
		max = 1
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(window / time.Duration(max)),
		burst:   max,
		window:  window,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			utils.JSONError(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &client{
			limiter:  rate.NewLimiter(rl.limit, rl.burst),
			lastSeen: time.Now(),
		}
		rl.clients[key] = c
		rl.prune()
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

// prune drops limiters idle for several windows. Called with rl.mu held.
func (rl *RateLimiter) prune() {
	cutoff := time.Now().Add(-3 * rl.window)
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
