package ports

import (
	"context"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

// AuditRepository persists the audit trail of mutations.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	// List returns the most recent entries first, at most limit of them.
	List(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
