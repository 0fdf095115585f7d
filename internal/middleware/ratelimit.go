// internal/middleware/ratelimit.go
//
// Fixed-window rate limiter backed by Redis.
//
// Context
// -------
// The feedback endpoint files an issue in the tracker for every accepted
// request, so it is the one route worth throttling.  Each client IP gets a
// counter key that expires with the window; a Lua script increments and
// sets the TTL atomically so concurrent replicas share one budget.
//
// Notes
// -----
// • Fails open: a Redis outage is logged and the request proceeds.
// • Oxford commas, two spaces after periods.

package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/senderotrails/site/internal/form"
	"github.com/senderotrails/site/internal/logger"
	"github.com/senderotrails/site/internal/metrics"
)

// MsgTooManyRequests is the 429 body text.
const MsgTooManyRequests = "Too many requests. Please try again later."

// KEYS[1] counter key, ARGV[1] window in seconds.  Returns {count, ttl}.
var incrScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`)

// RateLimitConfig tunes one limiter.
type RateLimitConfig struct {
	Name   string // label and key namespace, e.g. "feedback"
	Limit  int
	Window time.Duration
}

// Limiter counts requests per client IP.
type Limiter struct {
	rdb redis.Scripter
	cfg RateLimitConfig
}

// NewLimiter returns a limiter.  Limit <= 0 disables limiting.
func NewLimiter(rdb redis.Scripter, cfg RateLimitConfig) *Limiter {
	if cfg.Window < time.Second {
		cfg.Window = time.Minute
	}
	return &Limiter{rdb: rdb, cfg: cfg}
}

// Allow reports whether key may proceed and, when not, how long until the
// window resets.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.cfg.Limit <= 0 {
		return true, 0, nil
	}
	secs := int(l.cfg.Window / time.Second)
	res, err := incrScript.Run(ctx, l.rdb, []string{"rl:" + l.cfg.Name + ":" + key}, secs).Int64Slice()
	if err != nil {
		return true, 0, err
	}
	count, ttl := res[0], res[1]
	if count > int64(l.cfg.Limit) {
		if ttl < 1 {
			ttl = 1
		}
		return false, time.Duration(ttl) * time.Second, nil
	}
	return true, 0, nil
}

// Middleware answers 429 with the form envelope once a client exceeds the
// limit inside the current window.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		ok, retry, err := l.Allow(r.Context(), clientKey(r))
		if err != nil {
			logger.FromContext(r.Context()).Warnw("rate limiter unavailable", "form", l.cfg.Name, "err", err)
		}
		if !ok {
			metrics.FormSubmissions.WithLabelValues(l.cfg.Name, metrics.OutcomeLimited).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
			form.Fail(w, r, http.StatusTooManyRequests, MsgTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
