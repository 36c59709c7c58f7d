package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	rateLimitRPS   = 2
	rateLimitBurst = 5
	rateLimitTTL   = 3 * time.Minute
	rateLimitSweep = time.Minute
)

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit applies a per-IP token bucket, used on the public auth endpoints
// so registration and login cannot be hammered.
func RateLimit() func(next http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		clients = map[string]*rateLimitClient{}
	)

	go func() {
		for range time.Tick(rateLimitSweep) {
			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) > rateLimitTTL {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			mu.Lock()
			c, ok := clients[ip]
			if !ok {
				c = &rateLimitClient{limiter: rate.NewLimiter(rate.Limit(rateLimitRPS), rateLimitBurst)}
				clients[ip] = c
			}
			c.lastSeen = time.Now()
			allowed := c.limiter.Allow()
			mu.Unlock()

			if !allowed {
				http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
