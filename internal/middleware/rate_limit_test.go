package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	operatorID := uuid.New()

	// First 5 requests should be allowed (burst)
	for i := 0; i < 5; i++ {
		if !rl.Allow(operatorID) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 6th request should be rate limited (exceeded burst)
	if rl.Allow(operatorID) {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentOperators(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	op1 := uuid.New()
	op2 := uuid.New()

	for i := 0; i < 3; i++ {
		if !rl.Allow(op1) {
			t.Errorf("Operator 1 request %d should be allowed", i+1)
		}
	}

	if rl.Allow(op1) {
		t.Error("Operator 1 should be rate limited")
	}

	// Operator 2 should still have its full burst
	for i := 0; i < 3; i++ {
		if !rl.Allow(op2) {
			t.Errorf("Operator 2 request %d should be allowed", i+1)
		}
	}
}

func TestRateLimiter_InvalidConfigUsesDefaults(t *testing.T) {
	rl := NewRateLimiterWithConfig(0, -1)
	defer rl.Stop()

	if rl.requestsPerMinute != DefaultRateLimit {
		t.Errorf("Expected %d requests per minute, got %d", DefaultRateLimit, rl.requestsPerMinute)
	}
	if rl.burstSize != DefaultBurstSize {
		t.Errorf("Expected burst %d, got %d", DefaultBurstSize, rl.burstSize)
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter()
	rl.Stop()
	rl.Stop()
}

func TestRateLimitMiddleware_SkipsAnonymous(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	handlerCalled := false
	handler := func(c echo.Context) error {
		handlerCalled = true
		return c.String(http.StatusOK, "OK")
	}

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/1/close", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handlerCalled = false

		err := RateLimitMiddleware(rl)(handler)(c)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !handlerCalled {
			t.Error("Handler should be called when no operator is in context")
		}
	}
}

func TestRateLimitMiddleware_RateLimitsOperator(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 2)
	defer rl.Stop()

	operatorID := uuid.New()
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	newContext := func() (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/1/close", nil)
		ctx := context.WithValue(req.Context(), OperatorIDKey, operatorID)
		rec := httptest.NewRecorder()
		return e.NewContext(req.WithContext(ctx), rec), rec
	}

	for i := 0; i < 2; i++ {
		c, rec := newContext()
		if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
			t.Fatalf("Request %d: Expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: Expected status 200, got %d", i+1, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "10" {
			t.Errorf("Request %d: Expected X-RateLimit-Limit 10, got %q", i+1, rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	c, rec := newContext()
	if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}
