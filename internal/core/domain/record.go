package domain

import (
	"errors"
	"time"
)

// RecordStatus represents the state of a record.
type RecordStatus string

const (
	StatusPending   RecordStatus = "pending"
	StatusCompleted RecordStatus = "completed"
	StatusArchived  RecordStatus = "archived"
)

var ErrInvalidStatus = errors.New("invalid record status")

// Valid reports whether s is one of the known statuses. Transitions are not
// restricted: any status may be reassigned to any other, or to itself.
func (s RecordStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Record is a unit of user-owned work.
type Record struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      RecordStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// VisibleTo reports whether the identity may read or modify the record.
func (r Record) VisibleTo(caller Identity) bool {
	return caller.IsAdmin() || r.UserID == caller.ID
}

// NewRecord carries the caller-supplied fields of a record to be created.
type NewRecord struct {
	Title       string
	Description string
	Status      RecordStatus
}
