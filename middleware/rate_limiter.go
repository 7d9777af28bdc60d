package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"stitchtherapy/config"
	"stitchtherapy/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	rps     rate.Limit
	burst   int
}

func newLimiterStore(perMinute int) *limiterStore {
	s := &limiterStore{
		clients: make(map[string]*limiterEntry),
		rps:     rate.Limit(float64(perMinute) / 60.0),
		burst:   perMinute,
	}
	go s.cleanup()
	return s
}

func (s *limiterStore) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.clients[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.clients[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (s *limiterStore) cleanup() {
	for range time.Tick(5 * time.Minute) {
		s.mu.Lock()
		for ip, entry := range s.clients {
			if time.Since(entry.lastSeen) > 10*time.Minute {
				delete(s.clients, ip)
			}
		}
		s.mu.Unlock()
	}
}

// RateLimiter throttles each client IP to the configured requests per minute.
func RateLimiter() gin.HandlerFunc {
	perMinute := config.AppConfig.MaxRequestsPerMin
	if perMinute <= 0 {
		perMinute = 100
	}
	store := newLimiterStore(perMinute)

	return func(c *gin.Context) {
		if !store.get(ClientIP(c)).Allow() {
			utils.JSONError(c, http.StatusTooManyRequests, "too many requests", "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClientIP resolves the caller's address, honouring proxy headers the way
// gin does and stripping any port.
func ClientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}
