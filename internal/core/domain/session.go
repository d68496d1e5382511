package domain

import (
	"context"
	"fmt"
	"time"
)

// Session is the authenticated caller of an operation.
type Session struct {
	Identity Identity
	// TokenID and ExpiresAt are set when the session came from a bearer token.
	TokenID   string
	ExpiresAt time.Time
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session attached to ctx, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// Caller returns the identity of the authenticated caller or ErrUnauthenticated.
func Caller(ctx context.Context) (Identity, error) {
	s, ok := SessionFromContext(ctx)
	if !ok || s.Identity.ID == "" {
		return Identity{}, ErrUnauthenticated
	}
	return s.Identity, nil
}

// AdminCaller returns the caller if it is an admin. Every rejection is an
// ErrUnauthorized; a missing session additionally matches ErrUnauthenticated.
func AdminCaller(ctx context.Context) (Identity, error) {
	caller, err := Caller(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !caller.IsAdmin() {
		return Identity{}, ErrUnauthorized
	}
	return caller, nil
}
