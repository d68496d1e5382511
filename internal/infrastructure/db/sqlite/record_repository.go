package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

type RecordRepository struct {
	db *sql.DB
}

const recordColumns = `id, user_id, title, description, status, created_at`

func scanRecord(row interface{ Scan(...any) error }) (domain.Record, error) {
	var (
		rec       domain.Record
		status    string
		createdAt string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &status, &createdAt); err != nil {
		return domain.Record{}, err
	}
	rec.Status = domain.RecordStatus(status)
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}

func (r *RecordRepository) List(ctx context.Context, ownerID string) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records`
	var args []any
	if ownerID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY seq, rowid`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RecordRepository) FindByID(ctx context.Context, id string) (*domain.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	return &rec, nil
}

func (r *RecordRepository) Insert(ctx context.Context, record *domain.Record) (*domain.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, seq, err := assignID(ctx, tx, "records", record.ID)
	if err != nil {
		return nil, err
	}

	stored := *record
	stored.ID = id
	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (id, seq, user_id, title, description, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, seq, stored.UserID, stored.Title, stored.Description, string(stored.Status),
		formatTime(stored.CreatedAt))
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return nil, fmt.Errorf("insert record %s: duplicate id", stored.ID)
		}
		return nil, fmt.Errorf("insert record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert record: %w", err)
	}
	stored.CreatedAt = stored.CreatedAt.UTC()
	return &stored, nil
}

func (r *RecordRepository) UpdateStatus(ctx context.Context, id string, status domain.RecordStatus) (*domain.Record, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE records SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return nil, fmt.Errorf("update record status: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update record status: %w", err)
	} else if n == 0 {
		return nil, domain.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *RecordRepository) CountByOwner(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, COUNT(*) FROM records GROUP BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			owner string
			n     int
		)
		if err := rows.Scan(&owner, &n); err != nil {
			return nil, fmt.Errorf("scan record count: %w", err)
		}
		counts[owner] = n
	}
	return counts, rows.Err()
}
