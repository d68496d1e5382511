package ports

import (
	"context"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

// AuditSink accepts audit entries for asynchronous persistence.
type AuditSink interface {
	Enqueue(entry domain.AuditEntry)
}

// AuditService persists and lists audit entries.
type AuditService interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
	// Recent is admin only.
	Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
