package ports

import (
	"context"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

// IdentityRepository defines persistence for identities. Implementations keep
// insertion order and hand out copies.
type IdentityRepository interface {
	List(ctx context.Context) ([]domain.Identity, error)
	// FindByID returns domain.ErrIdentityNotFound when id is absent.
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	// FindByUsername returns domain.ErrIdentityNotFound when the handle is absent.
	FindByUsername(ctx context.Context, username string) (*domain.Identity, error)
	// Insert stores the identity. An empty ID is replaced by the next numeric
	// identifier; a taken username yields domain.ErrHandleTaken.
	Insert(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	// Delete returns domain.ErrIdentityNotFound when id is absent.
	Delete(ctx context.Context, id string) error
}
