package types

import "time"

// ProfileRecord represents the editable profile of a user.
// It is owned by the profile store; views only hold copies.
type ProfileRecord struct {
	// FullName is the display name shown on the admin view.
	FullName string `json:"full_name"`

	// Role is the free-form job title of the user.
	Role string `json:"role"`

	// AvatarURL points to the avatar image. It may be an object storage
	// path served by the dashboard or an inline data URL.
	AvatarURL *string `json:"avatar_url"`

	// UpdatedAt is the timestamp of the most recent upsert.
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfilePatch carries the fields to change on upsert. Nil fields are left untouched.
type ProfilePatch struct {
	FullName  *string `json:"full_name,omitempty"`
	Role      *string `json:"role,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// ActivityLogEntry is a read-only line of the user's access history.
type ActivityLogEntry struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
}

// ActivityEvent is recorded when a user performs a notable action.
// Events are written to the activity log either directly or through the message queue.
type ActivityEvent struct {
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Activity statuses.
const (
	ActivityStatusOK      = "OK"
	ActivityStatusWarning = "AVISO"
)
