package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
)

// --- Identity repository ---

type stubIdentityRepo struct {
	items   []domain.Identity
	highest int
	listErr error
}

func (r *stubIdentityRepo) List(context.Context) ([]domain.Identity, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]domain.Identity(nil), r.items...), nil
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	for _, it := range r.items {
		if it.ID == id {
			found := it
			return &found, nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *stubIdentityRepo) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	for _, it := range r.items {
		if it.Username == username {
			found := it
			return &found, nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *stubIdentityRepo) Insert(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	for _, it := range r.items {
		if it.Username == identity.Username {
			return nil, domain.ErrHandleTaken
		}
	}
	stored := *identity
	if stored.ID == "" {
		r.highest++
		stored.ID = strconv.Itoa(r.highest)
	} else if n, err := strconv.Atoi(stored.ID); err == nil && n > r.highest {
		r.highest = n
	}
	r.items = append(r.items, stored)
	out := stored
	return &out, nil
}

func (r *stubIdentityRepo) Delete(_ context.Context, id string) error {
	for i, it := range r.items {
		if it.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrIdentityNotFound
}

// --- Record repository ---

type stubRecordRepo struct {
	items   []domain.Record
	highest int
}

func (r *stubRecordRepo) List(_ context.Context, ownerID string) ([]domain.Record, error) {
	var out []domain.Record
	for _, it := range r.items {
		if ownerID == "" || it.UserID == ownerID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *stubRecordRepo) FindByID(_ context.Context, id string) (*domain.Record, error) {
	for _, it := range r.items {
		if it.ID == id {
			found := it
			return &found, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *stubRecordRepo) Insert(_ context.Context, record *domain.Record) (*domain.Record, error) {
	stored := *record
	if stored.ID == "" {
		r.highest++
		stored.ID = strconv.Itoa(r.highest)
	} else if n, err := strconv.Atoi(stored.ID); err == nil && n > r.highest {
		r.highest = n
	}
	r.items = append(r.items, stored)
	out := stored
	return &out, nil
}

func (r *stubRecordRepo) UpdateStatus(_ context.Context, id string, status domain.RecordStatus) (*domain.Record, error) {
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Status = status
			out := r.items[i]
			return &out, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *stubRecordRepo) CountByOwner(context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, it := range r.items {
		counts[it.UserID]++
	}
	return counts, nil
}

// --- Audit ---

type stubAuditRepo struct {
	entries   []domain.AuditEntry
	insertErr error
	lastLimit int
}

func (r *stubAuditRepo) Insert(_ context.Context, e *domain.AuditEntry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *stubAuditRepo) List(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	r.lastLimit = limit
	return r.entries, nil
}

type recordingSink struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (s *recordingSink) Enqueue(e domain.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// --- Latency ---

type countingLatency struct {
	calls map[ports.Operation]int
}

func newCountingLatency() *countingLatency {
	return &countingLatency{calls: make(map[ports.Operation]int)}
}

func (l *countingLatency) Wait(ctx context.Context, op ports.Operation) error {
	l.calls[op]++
	return ctx.Err()
}

// --- Session slot ---

type stubSlot struct {
	data    []byte
	loadErr error
	saveErr error
	cleared int
}

func (s *stubSlot) Load(context.Context) ([]byte, error) { return s.data, s.loadErr }

func (s *stubSlot) Save(_ context.Context, data []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = data
	return nil
}

func (s *stubSlot) Clear(context.Context) error {
	s.cleared++
	s.data = nil
	return nil
}

// --- Tokens ---

type stubTokens struct{ issued int }

func (t *stubTokens) Issue(identity domain.Identity) (string, domain.Session, error) {
	t.issued++
	s := domain.Session{
		Identity:  identity,
		TokenID:   "jti-" + strconv.Itoa(t.issued),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return "token-" + identity.ID, s, nil
}

func (t *stubTokens) Parse(string) (domain.Session, error) {
	return domain.Session{}, errors.New("not implemented")
}

type stubRevocations struct {
	revoked map[string]time.Time
	err     error
}

func (r *stubRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	if r.err != nil {
		return r.err
	}
	if r.revoked == nil {
		r.revoked = make(map[string]time.Time)
	}
	r.revoked[id] = until
	return nil
}

func (r *stubRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := r.revoked[id]
	return ok, r.err
}

// --- Fixtures ---

var testHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

// seededIdentities mirrors the demo directory: 1 admin and 3 standard identities.
func seededIdentities() *stubIdentityRepo {
	r := &stubIdentityRepo{}
	for _, it := range []domain.Identity{
		{ID: "1", Username: "admin", Name: "Admin User", Role: domain.RoleAdmin},
		{ID: "2", Username: "user", Name: "Regular User", Role: domain.RoleStandard},
		{ID: "3", Username: "johndoe", Name: "John Doe", Role: domain.RoleStandard},
		{ID: "4", Username: "janedoe", Name: "Jane Doe", Role: domain.RoleStandard},
	} {
		it.PasswordHash = testHash
		_, _ = r.Insert(context.Background(), &it)
	}
	return r
}

// seededRecords mirrors the demo records: owners 1,1,1,2,2,2,3,3,4,4.
func seededRecords() *stubRecordRepo {
	r := &stubRecordRepo{}
	owners := []string{"1", "1", "1", "2", "2", "2", "3", "3", "4", "4"}
	statuses := []domain.RecordStatus{
		domain.StatusCompleted, domain.StatusPending, domain.StatusPending,
		domain.StatusCompleted, domain.StatusCompleted, domain.StatusPending,
		domain.StatusPending, domain.StatusCompleted,
		domain.StatusCompleted, domain.StatusPending,
	}
	for i, owner := range owners {
		_, _ = r.Insert(context.Background(), &domain.Record{
			UserID: owner,
			Title:  "record " + strconv.Itoa(i+1),
			Status: statuses[i],
		})
	}
	return r
}

func as(id string, role domain.Role) context.Context {
	return domain.WithSession(context.Background(), domain.Session{
		Identity: domain.Identity{ID: id, Username: "u" + id, Role: role},
	})
}

var (
	adminCtx = func() context.Context { return as("1", domain.RoleAdmin) }
	userCtx  = func() context.Context { return as("2", domain.RoleStandard) }
)
