package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
)

// DirectoryService manages the identity set on behalf of admin callers.
type DirectoryService struct {
	identities ports.IdentityRepository
	audit      ports.AuditSink
	latency    ports.Latency
	hashCost   int
	log        zerolog.Logger
	now        func() time.Time
}

func NewDirectoryService(
	identities ports.IdentityRepository,
	audit ports.AuditSink,
	latency ports.Latency,
	hashCost int,
	log zerolog.Logger,
) *DirectoryService {
	return &DirectoryService{
		identities: identities,
		audit:      audit,
		latency:    latency,
		hashCost:   hashCost,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ListIdentities returns every identity in insertion order.
func (s *DirectoryService) ListIdentities(ctx context.Context) ([]domain.Identity, error) {
	if _, err := domain.AdminCaller(ctx); err != nil {
		return nil, err
	}
	if err := s.latency.Wait(ctx, ports.OpListIdentities); err != nil {
		return nil, err
	}

	identities, err := s.identities.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	for i := range identities {
		identities[i] = identities[i].Snapshot()
	}
	return identities, nil
}

// AddIdentity appends a new identity with a fresh identifier. An empty
// password creates an account that cannot log in yet.
func (s *DirectoryService) AddIdentity(ctx context.Context, in domain.NewIdentity) (*domain.Identity, error) {
	caller, err := domain.AdminCaller(ctx)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, domain.ErrUsernameRequired
	}
	role, err := domain.ParseRole(string(in.Role))
	if err != nil {
		return nil, err
	}

	if err := s.latency.Wait(ctx, ports.OpAddIdentity); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != "" {
		if hash, err = HashPassword(in.Password, s.hashCost); err != nil {
			return nil, err
		}
	}

	created, err := s.identities.Insert(ctx, &domain.Identity{
		Username:     username,
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Role:         role,
		Avatar:       in.Avatar,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if !errors.Is(err, domain.ErrHandleTaken) {
			s.log.Error().Err(err).Str("username", username).Msg("failed to add identity")
		}
		return nil, err
	}

	s.audit.Enqueue(domain.AuditEntry{
		Action:    domain.AuditIdentityAdded,
		ActorID:   caller.ID,
		SubjectID: created.ID,
		Detail:    string(created.Role),
		Timestamp: s.now(),
	})
	s.log.Info().Str("identity_id", created.ID).Str("actor_id", caller.ID).Msg("identity added")

	out := created.Snapshot()
	return &out, nil
}

// RemoveIdentity deletes an identity other than the caller's own. Records
// owned by the removed identity are kept as they are.
func (s *DirectoryService) RemoveIdentity(ctx context.Context, id string) error {
	caller, err := domain.AdminCaller(ctx)
	if err != nil {
		return err
	}
	if err := s.latency.Wait(ctx, ports.OpRemoveIdentity); err != nil {
		return err
	}

	if _, err := s.identities.FindByID(ctx, id); err != nil {
		return err
	}
	if id == caller.ID {
		s.log.Warn().Str("identity_id", id).Msg("self deletion rejected")
		return domain.ErrSelfDeletion
	}

	if err := s.identities.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Enqueue(domain.AuditEntry{
		Action:    domain.AuditIdentityRemoved,
		ActorID:   caller.ID,
		SubjectID: id,
		Timestamp: s.now(),
	})
	s.log.Info().Str("identity_id", id).Str("actor_id", caller.ID).Msg("identity removed")
	return nil
}
