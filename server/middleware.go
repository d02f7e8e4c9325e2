package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pairplay/gameserver/config"
)

// withCORS allows the configured client origin only. Credentials are
// permitted because the role cookie rides along on every request.
func (s *GameServer) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == s.cfg.Server.ClientOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type visitor struct {
	api      *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket pair per client IP. Auth endpoints get
// a much tighter budget than the rest of the API.
type rateLimiter struct {
	cfg      config.RateLimitConfig
	mu       sync.Mutex
	visitors map[string]*visitor
}

func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	l := &rateLimiter{
		cfg:      cfg,
		visitors: make(map[string]*visitor),
	}
	go l.cleanup()
	return l
}

func (l *rateLimiter) visitor(r *http.Request) *visitor {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{
			api:  rate.NewLimiter(rate.Limit(l.cfg.APIPerSecond), l.cfg.APIBurst),
			auth: rate.NewLimiter(rate.Limit(l.cfg.AuthPerMinute/60), l.cfg.AuthBurst),
		}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v
}

func (l *rateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		l.mu.Lock()
		for ip, v := range l.visitors {
			if v.lastSeen.Before(cutoff) {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}

func (l *rateLimiter) limitAPI(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.visitor(r).api.Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	})
}

func (l *rateLimiter) limitAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.visitor(r).auth.Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	})
}

// requireRole rejects requests without a valid role cookie and passes the
// verified role to the handler.
func (s *GameServer) requireRole(next func(w http.ResponseWriter, r *http.Request, role string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := s.authService.RoleFromRequest(r)
		if role == "" {
			writeJSON(w, http.StatusUnauthorized, apiResponse{Success: false, Message: "Not unlocked"})
			return
		}
		next(w, r, role)
	}
}
