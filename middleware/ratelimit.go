package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kevinaaaquil/library/service"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client key with a token bucket that refills max tokens every window.
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
	logger    *zap.Logger
}

func NewRateLimiter(window time.Duration, max int, logger *zap.Logger) *RateLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		idle:     window,
		visitors: make(map[string]*visitor),
		now:      time.Now,
		logger:   logger,
	}
}

// Allow consumes one token for key.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) > l.idle {
		for k, v := range l.visitors {
			// An idle visitor's bucket is full again, so dropping it loses nothing.
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// ErrorWriter renders err as an API error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware keys requests by client IP and, when the JSON body carries one, the phone number.
// Rejections go through writeErr so they share the API's error body.
func (l *RateLimiter) Middleware(writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			phone, err := peekPhone(w, r)
			if err != nil {
				writeErr(w, r, err)
				return
			}
			key := clientIP(r)
			if phone != "" {
				key += ":" + phone
			}
			if !l.Allow(key) {
				l.logger.Info("rate limited", zap.String("key", key), zap.String("path", r.URL.Path))
				writeErr(w, r, service.NewTooManyRequests("Too many reservation attempts, please try again later."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// peekPhone reads the phone field and restores the body for the next handler.
// A body over MaxBodyBytes is rejected rather than passed on truncated.
func peekPhone(w http.ResponseWriter, r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", service.NewPayloadTooLarge(tooLarge.Limit)
		}
		return "", service.NewValidationError(map[string]string{"body": "body could not be read"})
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	var body struct {
		Phone string `json:"phone"`
	}
	if json.Unmarshal(data, &body) != nil {
		return "", nil
	}
	return strings.TrimSpace(body.Phone), nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
