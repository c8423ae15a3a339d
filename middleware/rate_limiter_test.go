package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientIPGenericDirect(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "10.0.0.1")

	got := clientIPGeneric(r, nil)
	if got != "203.0.113.7" {
		t.Fatalf("expected remote addr ip, got %q", got)
	}
}

func TestClientIPGenericTrustedProxy(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.1.2.3")

	got := clientIPGeneric(r, []string{"10.0.0.0/8"})
	if got != "198.51.100.9" {
		t.Fatalf("expected first XFF entry, got %q", got)
	}
}

func TestClientIPGenericUntrustedProxyIgnoresXFF(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.50:1024"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	got := clientIPGeneric(r, []string{"10.0.0.0/8"})
	if got != "192.0.2.50" {
		t.Fatalf("expected remote addr ip, got %q", got)
	}
}

func TestIPRateLimiterBlocksAfterLimit(t *testing.T) {
	l := NewIPRateLimiter(2, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/v1/payments/initiate", nil)
		r.RemoteAddr = "203.0.113.7:1000"
		h.ServeHTTP(rec, r)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/v1/payments/initiate", nil)
	r.RemoteAddr = "203.0.113.7:1000"
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	// Different IP is unaffected.
	rec2 := httptest.NewRecorder()
	r2 := httptest.NewRequest("POST", "/v1/payments/initiate", nil)
	r2.RemoteAddr = "203.0.113.8:1000"
	h.ServeHTTP(rec2, r2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected other ip to pass, got %d", rec2.Code)
	}
}

func TestWebhookLimiterWhitelistBypass(t *testing.T) {
	l := NewWebhookLimiter(1, time.Minute, []string{"198.51.100.77"})
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/v1/payments/callback/success/TIX-1", nil)
		r.RemoteAddr = "198.51.100.77:2000"
		h.ServeHTTP(rec, r)
		if rec.Code != http.StatusOK {
			t.Fatalf("whitelisted request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	// Non-whitelisted IP hits the window.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/v1/payments/callback/success/TIX-1", nil)
		r.RemoteAddr = "192.0.2.5:2000"
		h.ServeHTTP(rec, r)
		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("first request: expected 200, got %d", rec.Code)
		}
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("second request: expected 429, got %d", rec.Code)
		}
	}
}
