package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role determines the visibility scope of an identity.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"

	// roleLegacyUser is how standard accounts were stored by older clients.
	roleLegacyUser = "user"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrSelfDeletion       = errors.New("cannot delete your own account")
	ErrHandleTaken        = errors.New("username already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUsernameRequired   = errors.New("username is required")

	// ErrNotFound is the kind shared by every missing-entity error.
	ErrNotFound         = errors.New("not found")
	ErrIdentityNotFound = fmt.Errorf("identity %w", ErrNotFound)
	ErrRecordNotFound   = fmt.Errorf("record %w", ErrNotFound)
)

// ParseRole converts a stored or submitted role value. The legacy value "user"
// maps to RoleStandard.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleAdmin):
		return RoleAdmin, nil
	case string(RoleStandard), roleLegacyUser:
		return RoleStandard, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Identity is an account. PasswordHash never leaves the process.
type Identity struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the identity has full visibility.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Snapshot returns a copy safe to hand to a session: later mutations of the
// source identity do not reach it, and the password hash is dropped.
func (i Identity) Snapshot() Identity {
	i.PasswordHash = ""
	return i
}

// NewIdentity carries the caller-supplied fields of an identity to be added.
type NewIdentity struct {
	Username string
	Name     string
	Email    string
	Role     Role
	Avatar   string
	Password string
}

// IdentityWithCount pairs an identity with the number of records it owns.
type IdentityWithCount struct {
	Identity
	RecordCount int `json:"recordCount"`
}
