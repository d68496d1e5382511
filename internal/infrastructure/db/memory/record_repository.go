package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

type RecordRepository struct {
	mu    sync.RWMutex
	items []domain.Record
	seq   sequence
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{}
}

func (r *RecordRepository) List(_ context.Context, ownerID string) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Record, 0, len(r.items))
	for _, it := range r.items {
		if ownerID != "" && it.UserID != ownerID {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *RecordRepository) FindByID(_ context.Context, id string) (*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		found := r.items[i]
		return &found, nil
	}
	return nil, domain.ErrRecordNotFound
}

func (r *RecordRepository) Insert(_ context.Context, record *domain.Record) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID != "" && r.indexOf(record.ID) >= 0 {
		return nil, fmt.Errorf("insert record %s: duplicate id", record.ID)
	}

	stored := *record
	stored.ID = r.seq.assign(stored.ID)
	r.items = append(r.items, stored)

	out := stored
	return &out, nil
}

func (r *RecordRepository) UpdateStatus(_ context.Context, id string, status domain.RecordStatus) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrRecordNotFound
	}
	r.items[i].Status = status

	out := r.items[i]
	return &out, nil
}

// CountByOwner scans every record once.
func (r *RecordRepository) CountByOwner(_ context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, it := range r.items {
		counts[it.UserID]++
	}
	return counts, nil
}

func (r *RecordRepository) indexOf(id string) int {
	for i, it := range r.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
