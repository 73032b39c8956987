package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"hospital-management-api/pkg/response"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware throttles requests per client IP. It is applied to the
// login endpoint to slow down credential guessing.
type RateLimitMiddleware struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	rps      rate.Limit
	burst    int
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimitMiddleware(rps float64, burst int) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		limiters: make(map[string]*ipLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}

	go m.cleanup()

	return m
}

func (m *RateLimitMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.allow(clientIP(r)) {
			response.TooManyRequests(w, "Too many requests, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) allow(ip string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(m.rps, m.burst)}
		m.limiters[ip] = l
	}
	l.lastSeen = time.Now()

	return l.limiter.Allow()
}

// cleanup drops limiters for IPs not seen recently so the map does not grow
// without bound.
func (m *RateLimitMiddleware) cleanup() {
	for {
		time.Sleep(time.Minute)

		m.mu.Lock()
		for ip, l := range m.limiters {
			if time.Since(l.lastSeen) > 3*time.Minute {
				delete(m.limiters, ip)
			}
		}
		m.mu.Unlock()
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
