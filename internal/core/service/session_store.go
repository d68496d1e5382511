package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
)

var errCorruptSnapshot = errors.New("corrupt session snapshot")

// SessionStore holds the single authenticated identity of a process and
// mirrors it into a durable slot so it survives restarts.
type SessionStore struct {
	auth    *Authenticator
	slot    ports.SessionSlot
	latency ports.Latency
	log     zerolog.Logger

	mu      sync.RWMutex
	current *domain.Identity
}

// NewSessionStore restores any snapshot persisted in slot. A snapshot that
// cannot be decoded is discarded and the store starts logged out.
func NewSessionStore(
	ctx context.Context,
	auth *Authenticator,
	slot ports.SessionSlot,
	latency ports.Latency,
	log zerolog.Logger,
) *SessionStore {
	s := &SessionStore{auth: auth, slot: slot, latency: latency, log: log}
	s.restore(ctx)
	return s
}

func (s *SessionStore) restore(ctx context.Context) {
	data, err := s.slot.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session slot unreadable, starting logged out")
		return
	}
	if data == nil {
		return
	}

	identity, err := decodeSnapshot(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("discarding persisted session")
		if clearErr := s.slot.Clear(ctx); clearErr != nil {
			s.log.Warn().Err(clearErr).Msg("failed to clear session slot")
		}
		return
	}

	s.current = &identity
	s.log.Debug().Str("identity_id", identity.ID).Msg("session restored")
}

// Login replaces the current session on success. On failure the previous
// session, if any, is left untouched.
func (s *SessionStore) Login(ctx context.Context, username, password string) (*domain.Identity, error) {
	if err := s.latency.Wait(ctx, ports.OpLogin); err != nil {
		return nil, err
	}

	identity, err := s.auth.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}

	snapshot := identity.Snapshot()
	data, err := encodeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	if err := s.slot.Save(ctx, data); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.current = &snapshot
	s.mu.Unlock()

	s.log.Info().Str("identity_id", snapshot.ID).Msg("session started")
	out := snapshot
	return &out, nil
}

// Logout clears the session and its persisted snapshot. It always succeeds;
// a slot that cannot be cleared is only logged.
func (s *SessionStore) Logout(ctx context.Context) {
	_ = s.latency.Wait(ctx, ports.OpLogout)

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.slot.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear session slot")
	}
}

// CurrentIdentity returns a copy of the session identity.
func (s *SessionStore) CurrentIdentity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.Identity{}, false
	}
	return *s.current, true
}

func (s *SessionStore) IsAuthenticated() bool {
	_, ok := s.CurrentIdentity()
	return ok
}

func (s *SessionStore) HasRole(role domain.Role) bool {
	identity, ok := s.CurrentIdentity()
	return ok && identity.Role == role
}

// Context attaches the current session to ctx so services can identify the
// caller. Without a session ctx is returned unchanged.
func (s *SessionStore) Context(ctx context.Context) context.Context {
	identity, ok := s.CurrentIdentity()
	if !ok {
		return ctx
	}
	return domain.WithSession(ctx, domain.Session{Identity: identity})
}

func encodeSnapshot(identity domain.Identity) ([]byte, error) {
	data, err := json.Marshal(identity)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (domain.Identity, error) {
	var identity domain.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", errCorruptSnapshot, err)
	}
	if identity.ID == "" || identity.Username == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing id or username", errCorruptSnapshot)
	}
	role, err := domain.ParseRole(string(identity.Role))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", errCorruptSnapshot, err)
	}
	identity.Role = role
	return identity, nil
}
