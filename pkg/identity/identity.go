package identity

import (
	"context"
	"strings"
)

type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// Identity is the user an external identity provider vouched for.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Provider supplies the identity of the current session.
type Provider interface {
	CurrentIdentity(ctx context.Context) (Identity, bool)
	IsAdmin(id Identity) bool
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || strings.TrimSpace(id.UserID) == "" {
		return Identity{}, false
	}
	return id, true
}

// ContextProvider resolves the identity the auth middleware attached to the
// request context.
type ContextProvider struct{}

func (ContextProvider) CurrentIdentity(ctx context.Context) (Identity, bool) {
	return FromContext(ctx)
}

func (ContextProvider) IsAdmin(id Identity) bool {
	return id.IsAdmin()
}
