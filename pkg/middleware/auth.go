package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"village-registry-system/pkg/identity"
	"village-registry-system/pkg/response"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// UserClaims is the JWT payload issued by auth-service.
type UserClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c *UserClaims) Identity() identity.Identity {
	return identity.Identity{
		UserID: c.UserID,
		Email:  c.Email,
		Name:   c.Name,
		Role:   identity.Role(c.Role),
	}
}

// RevocationChecker reports whether a token id was revoked by a logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Authenticator struct {
	secret  []byte
	revoked RevocationChecker
	log     *zap.Logger
}

// NewAuthenticator verifies HS256 tokens signed with secret. revoked may be nil.
func NewAuthenticator(secret string, revoked RevocationChecker, log *zap.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), revoked: revoked, log: log}
}

func (a *Authenticator) ParseToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// Middleware accepts "Authorization: Bearer <token>" or, for event streams
// that cannot set headers, a "token" query parameter.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "Missing Authorization header", "")
			return
		}

		claims, err := a.ParseToken(tokenString)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid or expired token", err.Error())
			return
		}

		if a.revoked != nil && claims.ID != "" {
			revoked, err := a.revoked.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				a.log.Error("[ERROR] revocation check failed", zap.String("trace_id", GetTraceID(r)), zap.Error(err))
				response.Error(w, http.StatusServiceUnavailable, "Unable to verify session", "")
				return
			}
			if revoked {
				response.Error(w, http.StatusUnauthorized, "Session has been signed out", "")
				return
			}
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		ctx = identity.WithIdentity(ctx, claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			return "", false
		}
		return tokenString, true
	}
	if tokenString := r.URL.Query().Get("token"); tokenString != "" {
		return tokenString, true
	}
	return "", false
}

// ClaimsFromContext returns the claims the Authenticator attached.
func ClaimsFromContext(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*UserClaims)
	return claims, ok
}
