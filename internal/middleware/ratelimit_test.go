package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"example.com/fitcoach/internal/auth"
)

func newTestLimiter(rps rate.Limit, burst int) *RateLimiter {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            rps,
		Burst:           burst,
		CleanupInterval: time.Hour,
	})
	return rl
}

func doRequest(t *testing.T, handler http.Handler, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/workouts", nil)
	if userID != "" {
		req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{UserID: userID}))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := newTestLimiter(1, 3)
	defer rl.Stop()
	handler := rl.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		if rec := doRequest(t, handler, "user-1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	rl := newTestLimiter(1, 1)
	defer rl.Stop()
	handler := rl.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest(t, handler, "user-1")
	rec := doRequest(t, handler, "user-1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestRateLimiterIsolatesUsers(t *testing.T) {
	rl := newTestLimiter(1, 1)
	defer rl.Stop()
	handler := rl.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest(t, handler, "user-1")
	if rec := doRequest(t, handler, "user-2"); rec.Code != http.StatusOK {
		t.Fatalf("other user's status = %d, want 200", rec.Code)
	}
	if got := rl.LimiterCount(); got != 2 {
		t.Errorf("LimiterCount = %d, want 2", got)
	}
}
