package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/retro-admin/dashboard/types"
)

// ActivityRepository handles persistence for activity_logs.
type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// List returns the latest entries of a user, newest first.
func (r *ActivityRepository) List(ctx context.Context, userID string, limit int) ([]types.ActivityLogEntry, error) {
	const query = `
		SELECT id, created_at, description, status
		FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []types.ActivityLogEntry
	for rows.Next() {
		var entry types.ActivityLogEntry
		if err := rows.Scan(&entry.ID, &entry.CreatedAt, &entry.Description, &entry.Status); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ActivityRepository) Create(ctx context.Context, event types.ActivityEvent) (types.ActivityLogEntry, error) {
	entry := types.ActivityLogEntry{
		ID:          uuid.NewString(),
		CreatedAt:   event.CreatedAt,
		Description: event.Description,
		Status:      event.Status,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Status == "" {
		entry.Status = types.ActivityStatusOK
	}

	const query = `
		INSERT INTO activity_logs (id, user_id, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		entry.ID,
		event.UserID,
		entry.Description,
		entry.Status,
		entry.CreatedAt,
	); err != nil {
		return types.ActivityLogEntry{}, err
	}
	return entry, nil
}
