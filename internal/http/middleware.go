package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RequestLogger replaces gin.Logger with one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start).Round(time.Microsecond),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			slog.Error("request", attrs...)
		case status >= http.StatusBadRequest:
			slog.Warn("request", attrs...)
		default:
			slog.Debug("request", attrs...)
		}
	}
}

// visitorIdleTTL is how long an idle client keeps its token bucket.
const visitorIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// WriteThrottle limits POST requests per client IP with a token bucket.
// Reads are never throttled.
type WriteThrottle struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastPrune time.Time
}

// NewWriteThrottle returns nil when rps is not positive.
func NewWriteThrottle(rps float64, burst int) *WriteThrottle {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &WriteThrottle{
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Allow reports whether ip may perform another write now.
func (t *WriteThrottle) Allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastPrune) > time.Minute {
		for key, v := range t.visitors {
			if now.Sub(v.lastSeen) > visitorIdleTTL {
				delete(t.visitors, key)
			}
		}
		t.lastPrune = now
	}

	v, ok := t.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (t *WriteThrottle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || t.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		slog.Warn("write throttled", "client_ip", c.ClientIP(), "path", c.Request.URL.Path)
		c.Header("Retry-After", strconv.Itoa(int(1/float64(t.limit))+1))
		c.String(http.StatusTooManyRequests, "Too many requests. Please slow down.")
		c.Abort()
	}
}
