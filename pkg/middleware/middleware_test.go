package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"village-registry-system/pkg/identity"
)

const testSecret = "test-secret"

type revocations map[string]bool

func (r revocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if id == "broken" {
		return false, errors.New("redis: connection refused")
	}
	return r[id], nil
}

func sign(t *testing.T, secret string, claims UserClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func claimsFor(role, jti string, exp time.Time) UserClaims {
	return UserClaims{
		UserID: "u-1",
		Email:  "jane@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestAuthenticator(t *testing.T) {
	auth := NewAuthenticator(testSecret, revocations{"gone": true}, zap.NewNop())

	var seen identity.Identity
	protected := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = identity.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	future := time.Now().Add(time.Hour)
	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "missing header", want: http.StatusUnauthorized},
		{name: "not a bearer token", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + sign(t, "other", claimsFor("citizen", "a", future)), want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + sign(t, testSecret, claimsFor("citizen", "a", time.Now().Add(-time.Minute))), want: http.StatusUnauthorized},
		{name: "revoked", header: "Bearer " + sign(t, testSecret, claimsFor("citizen", "gone", future)), want: http.StatusUnauthorized},
		{name: "revocation store down", header: "Bearer " + sign(t, testSecret, claimsFor("citizen", "broken", future)), want: http.StatusServiceUnavailable},
		{name: "valid header", header: "Bearer " + sign(t, testSecret, claimsFor("admin", "a", future)), want: http.StatusNoContent},
		{name: "valid query token", query: sign(t, testSecret, claimsFor("citizen", "b", future)), want: http.StatusNoContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target := "/api/residents/mine"
			if tc.query != "" {
				target += "?token=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	assert.Equal(t, "u-1", seen.UserID)
}

func TestRequireRole(t *testing.T) {
	auth := NewAuthenticator(testSecret, nil, zap.NewNop())
	h := auth.Middleware(RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	for role, want := range map[string]int{"admin": http.StatusOK, "citizen": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/admin/residents", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, testSecret, claimsFor(role, "", time.Now().Add(time.Hour))))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestTraceMiddleware(t *testing.T) {
	var got string
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetTraceID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(TraceHeader, "trace-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", got)
	assert.Equal(t, "trace-123", rec.Header().Get(TraceHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, got, 36)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/admin/residents/:id/approve", normalizePath("/admin/residents/1234567890123456/approve"))
	assert.Equal(t, "/admin/letters/:id", normalizePath("/admin/letters/665f1c2ab0e4d2a1c3f9e001"))
	assert.Equal(t, "/api/letters/mine", normalizePath("/api/letters/mine"))
}
