package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

type IdentityRepository struct {
	db *sql.DB
}

const identityColumns = `id, username, name, email, role, avatar, password_hash, created_at`

func scanIdentity(row interface{ Scan(...any) error }) (domain.Identity, error) {
	var (
		it        domain.Identity
		role      string
		createdAt string
	)
	if err := row.Scan(&it.ID, &it.Username, &it.Name, &it.Email, &role, &it.Avatar, &it.PasswordHash, &createdAt); err != nil {
		return domain.Identity{}, err
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		parsed = domain.RoleStandard
	}
	it.Role = parsed
	it.CreatedAt = parseTime(createdAt)
	return it, nil
}

func (r *IdentityRepository) List(ctx context.Context) ([]domain.Identity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY seq, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []domain.Identity
	for rows.Next() {
		it, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.findOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
}

func (r *IdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	return r.findOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE username = ?`, username)
}

func (r *IdentityRepository) findOne(ctx context.Context, query string, arg string) (*domain.Identity, error) {
	it, err := scanIdentity(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &it, nil
}

func (r *IdentityRepository) Insert(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert identity: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var taken int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities WHERE username = ?`, identity.Username).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken > 0 {
		return nil, domain.ErrHandleTaken
	}

	id, seq, err := assignID(ctx, tx, "identities", identity.ID)
	if err != nil {
		return nil, err
	}

	stored := *identity
	stored.ID = id
	_, err = tx.ExecContext(ctx,
		`INSERT INTO identities (id, seq, username, name, email, role, avatar, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, seq, stored.Username, stored.Name, stored.Email, string(stored.Role),
		stored.Avatar, stored.PasswordHash, formatTime(stored.CreatedAt))
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return nil, fmt.Errorf("insert identity %s: duplicate id", stored.ID)
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrHandleTaken
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert identity: %w", err)
	}
	stored.CreatedAt = stored.CreatedAt.UTC()
	return &stored, nil
}

func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if n == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}
