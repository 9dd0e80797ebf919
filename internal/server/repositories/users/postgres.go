package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/dbx"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, name, email, photo, role, password, password_changed_at,
		 password_reset_token, password_reset_expires, active, created_at, version`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.PasswordHash,
		&u.PasswordChangedAt, &u.PasswordResetToken, &u.PasswordResetExpires,
		&u.Active, &u.CreatedAt, &u.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrRecordNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (name, email, photo, role, password, password_changed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, active, created_at, version
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Photo, user.Role, user.PasswordHash, user.PasswordChangedAt).
		Scan(&user.ID, &user.Active, &user.CreatedAt, &user.Version)
	if err != nil {
		if dup := dbx.DuplicateError(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrRecordNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1 AND active
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE email = $1 AND active
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, id, digest string, expires time.Time) error {
	query :=
		`UPDATE users SET password_reset_token = $2, password_reset_expires = $3
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, digest, expires)
}

func (r *PostgresRepository) ClearResetToken(ctx context.Context, id string) error {
	query :=
		`UPDATE users SET password_reset_token = NULL, password_reset_expires = NULL
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) FindByResetToken(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE password_reset_token = $1 AND password_reset_expires > $2 AND active
		 FOR UPDATE
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, digest, now))
}

// UpdatePassword also clears any pending reset token.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error {
	query :=
		`UPDATE users SET password = $2, password_changed_at = $3,
		 password_reset_token = NULL, password_reset_expires = NULL, version = version + 1
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, hash, changedAt)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, user *models.User) (*models.User, error) {
	query := `UPDATE users SET name = $2, email = $3, photo = $4, version = version + 1
		 WHERE id = $1 AND active
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, user.ID, user.Name, user.Email, user.Photo))
	if err != nil {
		if dup := dbx.DuplicateError(err); dup != nil {
			return nil, dup
		}
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	query :=
		`UPDATE users SET active = FALSE, version = version + 1
		 WHERE id = $1 AND active
		 `
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrRecordNotFound
	}
	return nil
}
