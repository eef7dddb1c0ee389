package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimiterSharesBudgetPerUser(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	handler := limitedHandler(rl)
	userID := uuid.New()

	// Same user from two addresses draws down one budget.
	addrs := []string{"10.0.0.1:1111", "10.0.0.2:2222"}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPut, "/documents/1/progress", nil)
		req.RemoteAddr = addrs[i%2]
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPut, "/documents/1/progress", nil)
	req.RemoteAddr = addrs[1]
	req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429 once the user budget is spent", rec.Code)
	}

	// A different user is unaffected.
	req = httptest.NewRequest(http.MethodPut, "/documents/1/progress", nil)
	req.RemoteAddr = addrs[0]
	req = req.WithContext(context.WithValue(req.Context(), UserIDKey, uuid.New()))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200 for a fresh user", rec.Code)
	}
}

func TestRateLimiterFallsBackToRemoteAddr(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := limitedHandler(rl)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.9:3333"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429 for the same address", rec.Code)
	}
}
