package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
)

type RecordService struct {
	records    ports.RecordRepository
	identities ports.IdentityRepository
	audit      ports.AuditSink
	latency    ports.Latency
	logger     zerolog.Logger
	now        func() time.Time
}

func NewRecordService(
	records ports.RecordRepository,
	identities ports.IdentityRepository,
	audit ports.AuditSink,
	latency ports.Latency,
	logger zerolog.Logger,
) *RecordService {
	return &RecordService{
		records:    records,
		identities: identities,
		audit:      audit,
		latency:    latency,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ListVisibleRecords returns all records to admins and only owned records to
// standard identities, in insertion order.
func (s *RecordService) ListVisibleRecords(ctx context.Context) ([]domain.Record, error) {
	caller, err := domain.Caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.latency.Wait(ctx, ports.OpListRecords); err != nil {
		return nil, err
	}

	owner := caller.ID
	if caller.IsAdmin() {
		owner = ""
	}

	records, err := s.records.List(ctx, owner)
	if err != nil {
		s.logger.Error().Err(err).Str("identity_id", caller.ID).Msg("failed to list records")
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (s *RecordService) GetRecord(ctx context.Context, id string) (*domain.Record, error) {
	caller, err := domain.Caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.latency.Wait(ctx, ports.OpGetRecord); err != nil {
		return nil, err
	}

	return s.visibleRecord(ctx, caller, id)
}

// UpdateStatus sets the status of a record the caller may modify. Any status
// may replace any other, including itself.
func (s *RecordService) UpdateStatus(ctx context.Context, id string, status domain.RecordStatus) (*domain.Record, error) {
	caller, err := domain.Caller(ctx)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	current, err := s.visibleRecord(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if err := s.latency.Wait(ctx, ports.OpUpdateStatus); err != nil {
		return nil, err
	}

	updated, err := s.records.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.audit.Enqueue(domain.AuditEntry{
		Action:    domain.AuditRecordStatus,
		ActorID:   caller.ID,
		SubjectID: id,
		Detail:    fmt.Sprintf("%s -> %s", current.Status, status),
		Timestamp: s.now(),
	})
	s.logger.Info().Str("record_id", id).Str("status", string(status)).Str("actor_id", caller.ID).Msg("record status updated")

	return updated, nil
}

// CreateRecord stores a record owned by the caller. An empty status defaults
// to pending.
func (s *RecordService) CreateRecord(ctx context.Context, in domain.NewRecord) (*domain.Record, error) {
	caller, err := domain.Caller(ctx)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	// The owner must still exist: the session holds a copy that can outlive
	// the identity it was taken from.
	if _, err := s.identities.FindByID(ctx, caller.ID); err != nil {
		return nil, err
	}

	if err := s.latency.Wait(ctx, ports.OpCreateRecord); err != nil {
		return nil, err
	}

	created, err := s.records.Insert(ctx, &domain.Record{
		UserID:      caller.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		CreatedAt:   s.now(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("identity_id", caller.ID).Msg("failed to create record")
		return nil, fmt.Errorf("create record: %w", err)
	}

	s.audit.Enqueue(domain.AuditEntry{
		Action:    domain.AuditRecordCreated,
		ActorID:   caller.ID,
		SubjectID: created.ID,
		Detail:    string(created.Status),
		Timestamp: s.now(),
	})
	s.logger.Info().Str("record_id", created.ID).Str("user_id", caller.ID).Msg("record created")

	return created, nil
}

// ListIdentitiesWithRecordCounts joins every identity with the number of
// records it owns. Records whose owner no longer exists are not reported.
func (s *RecordService) ListIdentitiesWithRecordCounts(ctx context.Context) ([]domain.IdentityWithCount, error) {
	if _, err := domain.AdminCaller(ctx); err != nil {
		return nil, err
	}
	if err := s.latency.Wait(ctx, ports.OpRecordCounts); err != nil {
		return nil, err
	}

	identities, err := s.identities.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	counts, err := s.records.CountByOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	out := make([]domain.IdentityWithCount, len(identities))
	for i, identity := range identities {
		out[i] = domain.IdentityWithCount{
			Identity:    identity.Snapshot(),
			RecordCount: counts[identity.ID],
		}
	}
	return out, nil
}

func (s *RecordService) visibleRecord(ctx context.Context, caller domain.Identity, id string) (*domain.Record, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.VisibleTo(caller) {
		s.logger.Warn().Str("record_id", id).Str("identity_id", caller.ID).Msg("record access denied")
		return nil, domain.ErrUnauthorized
	}
	return record, nil
}
