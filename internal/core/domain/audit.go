package domain

import "time"

// AuditAction names a mutation recorded in the audit trail.
type AuditAction string

const (
	AuditRecordCreated   AuditAction = "record.created"
	AuditRecordStatus    AuditAction = "record.status_updated"
	AuditIdentityAdded   AuditAction = "identity.added"
	AuditIdentityRemoved AuditAction = "identity.removed"
)

// AuditEntry describes one successful mutation.
type AuditEntry struct {
	ID        string      `json:"id"`
	Action    AuditAction `json:"action"`
	ActorID   string      `json:"actorId"`
	SubjectID string      `json:"subjectId"`
	Detail    string      `json:"detail,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
