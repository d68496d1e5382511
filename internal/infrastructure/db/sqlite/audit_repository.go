package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

type AuditRepository struct {
	db *sql.DB
}

func (r *AuditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, action, actor_id, subject_id, detail, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.Action), entry.ActorID, entry.SubjectID, entry.Detail, formatTime(entry.Timestamp))
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	query := `SELECT id, action, actor_id, subject_id, detail, timestamp
		FROM audit_entries ORDER BY timestamp DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e      domain.AuditEntry
			action string
			ts     string
		)
		if err := rows.Scan(&e.ID, &action, &e.ActorID, &e.SubjectID, &e.Detail, &ts); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = domain.AuditAction(action)
		e.Timestamp = parseTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
