package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	avatar TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	is_admin INTEGER NOT NULL DEFAULT 0,
	reset_token TEXT NULL,
	reset_expires DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_users_reset_token ON users(reset_token);
`

const userColumns = `id, username, first_name, last_name, email, avatar, password_hash, is_admin, reset_token, reset_expires, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return storeError("create users table", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, first_name, last_name, email, avatar, password_hash, is_admin, reset_token, reset_expires, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Avatar,
		user.PasswordHash,
		user.IsAdmin,
		nullString(user.ResetToken),
		nullTime(user.ResetExpires),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return 0, storeError("insert user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeError("user last insert id", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET first_name = ?, last_name = ?, email = ?, avatar = ?, password_hash = ?, is_admin = ?,
	reset_token = ?, reset_expires = ?, updated_at = ?
WHERE id = ?`,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Avatar,
		user.PasswordHash,
		user.IsAdmin,
		nullString(user.ResetToken),
		nullTime(user.ResetExpires),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return storeError("update user", err)
	}
	return affectedOne("update user", res)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? ORDER BY id LIMIT 1`, email)
	return scanUser(row)
}

// GetByResetToken matches the token only; expiry is judged by the caller via User.ResetState.
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token = ?`, token)
	return scanUser(row)
}

// RedeemReset is a compare-and-swap on reset_token, so two submissions of one token
// cannot both succeed.
func (r *UserRepository) RedeemReset(ctx context.Context, id int64, token, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET password_hash = ?, reset_token = NULL, reset_expires = NULL, updated_at = ?
WHERE id = ? AND reset_token = ?`,
		passwordHash,
		time.Now().UTC(),
		id,
		token,
	)
	if err != nil {
		return storeError("redeem reset token", err)
	}
	return tokenConsumed("redeem reset token", res)
}

func (r *UserRepository) ClearReset(ctx context.Context, id int64, token string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET reset_token = NULL, reset_expires = NULL, updated_at = ?
WHERE id = ? AND reset_token = ?`,
		time.Now().UTC(),
		id,
		token,
	)
	if err != nil {
		return storeError("clear reset token", err)
	}
	return tokenConsumed("clear reset token", res)
}

func tokenConsumed(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidToken)
	}
	return nil
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		user         domain.User
		resetToken   sql.NullString
		resetExpires sql.NullTime
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Avatar,
		&user.PasswordHash,
		&user.IsAdmin,
		&resetToken,
		&resetExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, storeError("scan user", err)
	}

	if resetToken.Valid {
		token := resetToken.String
		user.ResetToken = &token
	}
	if resetExpires.Valid {
		t := resetExpires.Time.UTC()
		user.ResetExpires = &t
	}
	return &user, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
