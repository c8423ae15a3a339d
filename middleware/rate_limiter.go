package middleware

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// In-memory sliding-window rate limiting. Intentionally simple: state is
// per-process and designed to be swappable for Redis later.

type timestamps []int64 // unix nanos

func nowUnix() int64 { return time.Now().UnixNano() }

// clientIPGeneric returns the client IP string. If trustedCIDR is provided,
// X-Forwarded-For / X-Real-IP headers are honored when remote addr is inside
// one of the trusted CIDRs or IPs.
func clientIPGeneric(r *http.Request, trustedCIDR []string) string {
	remoteHost, _, _ := net.SplitHostPort(r.RemoteAddr)
	remoteIP := net.ParseIP(remoteHost)
	trusted := false
	for _, cidr := range trustedCIDR {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if strings.Contains(cidr, "/") {
			if _, ipnet, err := net.ParseCIDR(cidr); err == nil {
				if remoteIP != nil && ipnet.Contains(remoteIP) {
					trusted = true
					break
				}
			}
			continue
		}
		if ip := net.ParseIP(cidr); ip != nil && remoteIP != nil && ip.Equal(remoteIP) {
			trusted = true
			break
		}
	}
	if trusted {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if len(parts) > 0 {
				return strings.TrimSpace(parts[0])
			}
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return strings.TrimSpace(xr)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// slidingWindow records a hit for key and returns the hit count inside the
// window together with the seconds until the oldest hit expires.
type slidingWindow struct {
	window time.Duration
	mu     sync.Mutex
	state  map[string]timestamps
}

func newSlidingWindow(window time.Duration) *slidingWindow {
	sw := &slidingWindow{window: window, state: make(map[string]timestamps)}
	go sw.cleanupLoop()
	return sw
}

func (s *slidingWindow) hit(key string) (count, retryAfterSec int) {
	now := nowUnix()
	cutoff := now - int64(s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	var filtered timestamps
	oldest := now
	for _, ts := range s.state[key] {
		if ts >= cutoff {
			filtered = append(filtered, ts)
			if ts < oldest {
				oldest = ts
			}
		}
	}
	filtered = append(filtered, now)
	s.state[key] = filtered

	retryAfterSec = int((oldest + int64(s.window) - now) / 1e9)
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	return len(filtered), retryAfterSec
}

func (s *slidingWindow) cleanupLoop() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for range tick.C {
		now := nowUnix()
		cutoff := now - int64(s.window)
		s.mu.Lock()
		for k, arr := range s.state {
			var filtered timestamps
			for _, ts := range arr {
				if ts >= cutoff {
					filtered = append(filtered, ts)
				}
			}
			if len(filtered) == 0 {
				delete(s.state, k)
			} else {
				s.state[k] = filtered
			}
		}
		s.mu.Unlock()
	}
}

func writeTooMany(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": "Too many requests, try again later",
		"data":    map[string]interface{}{"retry_after_seconds": retryAfter},
	})
}

// IPRateLimiter applies a per-client-IP sliding window.
type IPRateLimiter struct {
	maxReq      int
	win         *slidingWindow
	trustedCIDR []string
}

func NewIPRateLimiter(maxReq int, window time.Duration) *IPRateLimiter {
	l := &IPRateLimiter{maxReq: maxReq, win: newSlidingWindow(window)}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		l.trustedCIDR = strings.Split(v, ",")
	}
	return l
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPGeneric(r, l.trustedCIDR)
		count, retryAfter := l.win.hit(ip)

		remaining := l.maxReq - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", l.maxReq))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > l.maxReq {
			writeTooMany(w, retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WebhookLimiter rate-limits gateway callback endpoints with an IP whitelist
// for known gateway origins. Whitelisted callers are never throttled; a
// burst of legitimate callbacks must not get a 429 back to the gateway.
type WebhookLimiter struct {
	maxReq    int
	win       *slidingWindow
	whitelist map[string]bool
}

func NewWebhookLimiter(maxReq int, window time.Duration, whitelist []string) *WebhookLimiter {
	wl := make(map[string]bool)
	for _, ip := range whitelist {
		wl[strings.TrimSpace(ip)] = true
	}
	return &WebhookLimiter{maxReq: maxReq, win: newSlidingWindow(window), whitelist: wl}
}

func (l *WebhookLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPGeneric(r, nil)
		if l.whitelist[ip] {
			next.ServeHTTP(w, r)
			return
		}
		count, retryAfter := l.win.hit(ip)
		if count > l.maxReq {
			writeTooMany(w, retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}
