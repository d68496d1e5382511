package ports

import (
	"context"
	"time"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

// LoginResult is returned by a successful bearer-token login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  domain.Identity
}

// AuthService authenticates HTTP callers.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	// Logout invalidates the session attached to ctx. It never fails for a
	// caller without a session.
	Logout(ctx context.Context) error
}

// TokenCodec turns an identity snapshot into a bearer token and back.
type TokenCodec interface {
	Issue(identity domain.Identity) (token string, session domain.Session, err error)
	Parse(token string) (domain.Session, error)
}

// Revocations remembers tokens invalidated before their expiry.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionSlot is the durable key-value slot holding one serialized session snapshot.
type SessionSlot interface {
	// Load returns nil, nil when the slot is empty.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// Operation names a service call for latency simulation and metrics.
type Operation string

const (
	OpLogin          Operation = "login"
	OpLogout         Operation = "logout"
	OpListIdentities Operation = "list_identities"
	OpAddIdentity    Operation = "add_identity"
	OpRemoveIdentity Operation = "remove_identity"
	OpListRecords    Operation = "list_records"
	OpGetRecord      Operation = "get_record"
	OpUpdateStatus   Operation = "update_status"
	OpCreateRecord   Operation = "create_record"
	OpRecordCounts   Operation = "record_counts"
)

// Latency suspends an operation to emulate network round trips.
type Latency interface {
	Wait(ctx context.Context, op Operation) error
}
