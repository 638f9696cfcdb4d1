package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aisgo/ais-admin-go-pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestTokenGuardUnconfigured(t *testing.T) {
	guard := NewTokenGuard(logger.NewNop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	guard.Handler(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestTokenGuardMissingToken(t *testing.T) {
	guard := NewTokenGuard(logger.NewNop(), "sk_test_1234567890")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	guard.Handler(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["msg"] != "missing access token" {
		t.Fatalf("unexpected msg: %v", body["msg"])
	}
}

func TestTokenGuardHeaderKey(t *testing.T) {
	guard := NewTokenGuard(logger.NewNop(), "sk_test_1234567890")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-API-Key", "sk_test_1234567890")
	guard.Handler(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestTokenGuardBearer(t *testing.T) {
	guard := NewTokenGuard(logger.NewNop(), "sk_test_bearer")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Authorization", "Bearer sk_test_bearer")
	guard.Handler(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestTokenGuardInvalidToken(t *testing.T) {
	guard := NewTokenGuard(logger.NewNop(), "sk_test_1234567890")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-API-Key", "wrong")
	guard.Handler(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["msg"] != "invalid access token" {
		t.Fatalf("unexpected msg: %v", body["msg"])
	}
}

func TestTokenGuardIgnoresEmptyTokens(t *testing.T) {
	// 空字符串令牌不得放行无令牌请求
	guard := NewTokenGuard(logger.NewNop(), "", "sk_real")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	guard.Handler(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
