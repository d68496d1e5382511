package memory

import (
	"context"
	"sync"
	"time"
)

// Revocations is the process-local token denylist used when Redis is not
// configured. Expired entries are pruned on write.
type Revocations struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{until: make(map[string]time.Time), now: time.Now}
}

func (r *Revocations) Revoke(_ context.Context, tokenID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.until {
		if !exp.After(now) {
			delete(r.until, id)
		}
	}
	r.until[tokenID] = until
	return nil
}

func (r *Revocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.until[tokenID]
	return ok && exp.After(r.now()), nil
}
