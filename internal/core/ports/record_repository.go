package ports

import (
	"context"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

// RecordRepository defines persistence operations for records.
type RecordRepository interface {
	// List returns records in insertion order. When ownerID is non-empty only
	// records owned by that identity are returned.
	List(ctx context.Context, ownerID string) ([]domain.Record, error)
	// FindByID returns domain.ErrRecordNotFound when id is absent.
	FindByID(ctx context.Context, id string) (*domain.Record, error)
	// Insert stores the record, assigning the next numeric identifier when ID is empty.
	Insert(ctx context.Context, record *domain.Record) (*domain.Record, error)
	// UpdateStatus sets the status of an existing record and returns the result.
	UpdateStatus(ctx context.Context, id string, status domain.RecordStatus) (*domain.Record, error)
	// CountByOwner returns the number of records per owner id.
	CountByOwner(ctx context.Context) (map[string]int, error)
}
