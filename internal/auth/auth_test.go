package auth

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	t.Run("round trips identity", func(t *testing.T) {
		token, err := v.Sign(Identity{UserID: 42, Role: RoleAdmin})
		if err != nil {
			t.Fatalf("sign: %v", err)
		}

		id, err := v.Verify(token)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if id.UserID != 42 || !id.IsAdmin() {
			t.Errorf("unexpected identity: %+v", id)
		}
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		token, err := NewJWTVerifier("other").Sign(Identity{UserID: 1, Role: "user"})
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rejects expired token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
			ID:   1,
			Role: "user",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		signed, err := token.SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := v.Verify(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rejects token without id", func(t *testing.T) {
		token, err := v.Sign(Identity{Role: "user"})
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rejects other signing methods", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims{ID: 1, Role: RoleAdmin})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := v.Verify(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestMiddleware(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seen Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	userToken, _ := v.Sign(Identity{UserID: 7, Role: "user"})
	adminToken, _ := v.Sign(Identity{UserID: 1, Role: RoleAdmin})

	tests := []struct {
		name       string
		handler    http.Handler
		header     string
		wantStatus int
	}{
		{"missing header", Middleware(v, logger, inner), "", http.StatusUnauthorized},
		{"wrong scheme", Middleware(v, logger, inner), "Basic " + userToken, http.StatusUnauthorized},
		{"garbage token", Middleware(v, logger, inner), "Bearer nope", http.StatusUnauthorized},
		{"valid user", Middleware(v, logger, inner), "Bearer " + userToken, http.StatusOK},
		{"user on admin route", Middleware(v, logger, RequireRole(RoleAdmin, inner)), "Bearer " + userToken, http.StatusForbidden},
		{"admin on admin route", Middleware(v, logger, RequireRole(RoleAdmin, inner)), "Bearer " + adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}

	if seen.UserID != 1 {
		t.Errorf("expected last identity to be the admin, got %+v", seen)
	}
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	h := RequireRole(RoleAdmin, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("inner handler should not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestWriteErrorIsJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusUnauthorized, "bad \u2028 token \"x\" \x01")

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("body is not valid json: %v", err)
	}
	if body["error"] != "bad \u2028 token \"x\" \x01" {
		t.Errorf("unexpected error message %q", body["error"])
	}
}
