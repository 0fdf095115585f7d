package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })

func newLimiter(t *testing.T, limit int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewLimiter(rdb, RateLimitConfig{Name: "feedback", Limit: limit, Window: time.Minute}), mr
}

func post(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", nil)
	req.RemoteAddr = ip + ":4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	l, _ := newLimiter(t, 2)
	h := l.Middleware(ok)

	assert.Equal(t, http.StatusCreated, post(h, "198.51.100.1").Code)
	assert.Equal(t, http.StatusCreated, post(h, "198.51.100.1").Code)

	rec := post(h, "198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"error":"`+MsgTooManyRequests+`"}`, rec.Body.String())

	assert.Equal(t, http.StatusCreated, post(h, "198.51.100.2").Code, "other clients unaffected")
}

func TestRateLimitWindowResets(t *testing.T) {
	l, mr := newLimiter(t, 1)
	h := l.Middleware(ok)

	assert.Equal(t, http.StatusCreated, post(h, "198.51.100.9").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(h, "198.51.100.9").Code)
	mr.FastForward(61 * time.Second)
	assert.Equal(t, http.StatusCreated, post(h, "198.51.100.9").Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	l, mr := newLimiter(t, 1)
	mr.Close()

	allowed, _, err := l.Allow(context.Background(), "x")
	assert.Error(t, err)
	assert.True(t, allowed)
	assert.Equal(t, http.StatusCreated, post(l.Middleware(ok), "198.51.100.3").Code)
}

func TestRateLimitDisabled(t *testing.T) {
	l := NewLimiter(nil, RateLimitConfig{Name: "feedback"})
	allowed, _, err := l.Allow(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(true, ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "http://sendero.cr/api/waitlist?x=1", nil))
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "https://sendero.cr/api/waitlist?x=1", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "http://localhost:8080/api/waitlist", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "http://sendero.cr/api/waitlist", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSecurityHeadersSurviveWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://senderobiketrails.com"})(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/waitlist", nil)
	req.Header.Set("Origin", "https://senderobiketrails.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://senderobiketrails.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsForeignOrigin(t *testing.T) {
	for name, origins := range map[string][]string{
		"configured": {"https://senderobiketrails.com"},
		"empty":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			h := CORS(origins)(ok)

			req := httptest.NewRequest(http.MethodOptions, "/api/waitlist", nil)
			req.Header.Set("Origin", "https://evil.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

			req = httptest.NewRequest(http.MethodPost, "/api/waitlist", nil)
			req.Header.Set("Origin", "https://evil.example")
			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
