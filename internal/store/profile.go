package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/retro-admin/dashboard/types"
)

// ProfileRepository handles persistence for profiles.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (types.ProfileRecord, error) {
	const query = `
		SELECT full_name, role, avatar_url, updated_at
		FROM profiles
		WHERE id = $1`
	var (
		record types.ProfileRecord
		avatar sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&record.FullName,
		&record.Role,
		&avatar,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ProfileRecord{}, ErrNotFound
		}
		return types.ProfileRecord{}, err
	}
	if avatar.Valid {
		record.AvatarURL = &avatar.String
	}
	return record, nil
}

// Upsert creates the profile or changes the fields set in patch.
func (r *ProfileRepository) Upsert(ctx context.Context, userID string, patch types.ProfilePatch) error {
	const query = `
		INSERT INTO profiles (id, full_name, role, avatar_url, updated_at)
		VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET full_name = COALESCE($2, profiles.full_name),
			role = COALESCE($3, profiles.role),
			avatar_url = COALESCE($4, profiles.avatar_url),
			updated_at = $5`
	_, err := r.db.ExecContext(
		ctx,
		query,
		userID,
		nullable(patch.FullName),
		nullable(patch.Role),
		nullable(patch.AvatarURL),
		time.Now(),
	)
	return err
}

func nullable(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
