package memory

import (
	"context"
	"sync"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

// maxAuditEntries bounds the in-memory trail; older entries are dropped.
const maxAuditEntries = 1000

type AuditRepository struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Insert(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, *entry)
	if over := len(r.entries) - maxAuditEntries; over > 0 {
		r.entries = append([]domain.AuditEntry(nil), r.entries[over:]...)
	}
	return nil
}

func (r *AuditRepository) List(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.AuditEntry, 0, n)
	for i := len(r.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}
