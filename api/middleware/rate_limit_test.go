package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeRateLimitStore struct {
	scopes []string
	limit  int64
	count  int64
	err    error
}

func (f *fakeRateLimitStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.scopes = append(f.scopes, scope)
	f.limit = limit
	f.count++
	return f.count <= limit, f.count, nil
}

func rateLimitedHandler(store RateLimitStore, policy RateLimitPolicy) http.Handler {
	return RateLimit(store, policy, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	store := &fakeRateLimitStore{}
	handler := rateLimitedHandler(store, RateLimitPolicy{Name: "checkout-start", Window: time.Minute, Limit: 2})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), "user-1"))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, resp.Code)
		}
	}
	if store.scopes[0] != "checkout-start:user:user-1" {
		t.Fatalf("unexpected scope %q", store.scopes[0])
	}
}

func TestRateLimitBlocksOverBudget(t *testing.T) {
	store := &fakeRateLimitStore{count: 5}
	handler := rateLimitedHandler(store, RateLimitPolicy{Name: "checkout-start", Window: time.Minute, Limit: 5})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
}

func TestRateLimitScopesAnonymousByIP(t *testing.T) {
	store := &fakeRateLimitStore{}
	handler := rateLimitedHandler(store, RateLimitPolicy{Name: "availability", Window: time.Minute, Limit: 10})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if store.scopes[0] != "availability:ip:203.0.113.9" {
		t.Fatalf("unexpected scope %q", store.scopes[0])
	}
}

func TestRateLimitFailsClosedOnStoreError(t *testing.T) {
	store := &fakeRateLimitStore{err: errors.New("redis down")}
	handler := rateLimitedHandler(store, RateLimitPolicy{Name: "availability", Window: time.Minute, Limit: 10})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := &fakeRateLimitStore{count: 100}
	handler := rateLimitedHandler(store, RateLimitPolicy{Name: "availability"})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(store.scopes) != 0 {
		t.Fatal("disabled policy must not touch the store")
	}
}

func TestRateLimitNilStorePassesThrough(t *testing.T) {
	handler := rateLimitedHandler(nil, RateLimitPolicy{Name: "availability", Window: time.Minute, Limit: 1})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
	}
}
