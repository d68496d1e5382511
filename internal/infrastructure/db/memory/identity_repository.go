// Package memory holds slice-backed repositories. They keep insertion order,
// copy values in and out, and are safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

type IdentityRepository struct {
	mu    sync.RWMutex
	items []domain.Identity
	seq   sequence
}

func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{}
}

func (r *IdentityRepository) List(_ context.Context) ([]domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Identity, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *IdentityRepository) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, it := range r.items {
		if it.ID == id {
			found := it
			return &found, nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *IdentityRepository) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, it := range r.items {
		if it.Username == username {
			found := it
			return &found, nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *IdentityRepository) Insert(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, it := range r.items {
		if it.Username == identity.Username {
			return nil, domain.ErrHandleTaken
		}
		if identity.ID != "" && it.ID == identity.ID {
			return nil, fmt.Errorf("insert identity %s: duplicate id", identity.ID)
		}
	}

	stored := *identity
	stored.ID = r.seq.assign(stored.ID)
	r.items = append(r.items, stored)

	out := stored
	return &out, nil
}

func (r *IdentityRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, it := range r.items {
		if it.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrIdentityNotFound
}

// sequence hands out numeric identifiers. It tracks the highest id ever
// seen so an id freed by a deletion is not handed out again.
type sequence struct {
	highest int
}

// assign returns id unchanged when set, recording it if numeric, and the next
// identifier otherwise.
func (s *sequence) assign(id string) string {
	if id != "" {
		if n, err := strconv.Atoi(id); err == nil && n > s.highest {
			s.highest = n
		}
		return id
	}
	s.highest++
	return strconv.Itoa(s.highest)
}
