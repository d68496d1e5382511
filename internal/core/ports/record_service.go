package ports

import (
	"context"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

// DirectoryService manages identities. Every operation requires an admin caller.
type DirectoryService interface {
	ListIdentities(ctx context.Context) ([]domain.Identity, error)
	AddIdentity(ctx context.Context, in domain.NewIdentity) (*domain.Identity, error)
	RemoveIdentity(ctx context.Context, id string) error
}

// RecordService exposes role-filtered access to records. The caller is read
// from the session attached to ctx.
type RecordService interface {
	ListVisibleRecords(ctx context.Context) ([]domain.Record, error)
	GetRecord(ctx context.Context, id string) (*domain.Record, error)
	UpdateStatus(ctx context.Context, id string, status domain.RecordStatus) (*domain.Record, error)
	CreateRecord(ctx context.Context, in domain.NewRecord) (*domain.Record, error)
	// ListIdentitiesWithRecordCounts is admin only.
	ListIdentitiesWithRecordCounts(ctx context.Context) ([]domain.IdentityWithCount, error)
}
