package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/retro-admin/dashboard/types"
)

// SessionRepository handles persistence for auth_sessions.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, token, userID string, expiresAt time.Time) error {
	const query = `
		INSERT INTO auth_sessions (token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, token, userID, time.Now(), expiresAt)
	return err
}

// Lookup returns the account owning an unexpired session token.
func (r *SessionRepository) Lookup(ctx context.Context, token string) (types.Account, error) {
	const query = `
		SELECT u.id, u.email, u.password_hash, u.created_at, u.updated_at
		FROM auth_sessions s
		JOIN auth_users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > $2`
	var account types.Account
	err := r.db.QueryRowContext(ctx, query, token, time.Now()).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, err
	}
	return account, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	const query = `DELETE FROM auth_sessions WHERE token = $1`
	_, err := r.db.ExecContext(ctx, query, token)
	return err
}

// DeleteExpired removes every session past its expiry and returns how many were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM auth_sessions WHERE expires_at <= $1`
	result, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
