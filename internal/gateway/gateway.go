// Package gateway declares the capabilities the dashboard consumes from its
// identity and database backend, together with the error kinds every adapter
// maps its failures to.
package gateway

import (
	"context"

	"github.com/retro-admin/dashboard/types"
)

// DefaultActivityLimit is the number of activity log entries fetched when no limit is given.
const DefaultActivityLimit = 10

// SessionGateway authenticates one visitor against the backend.
type SessionGateway interface {
	SignIn(ctx context.Context, email, password string) (types.Identity, error)
	SignUp(ctx context.Context, email, password string) (types.Identity, error)
	// SignOut is best effort; callers log failures and carry on.
	SignOut(ctx context.Context) error
	// CurrentUser returns nil when the visitor holds no session.
	CurrentUser(ctx context.Context) (*types.Identity, error)
	// OnAuthStateChange registers fn to receive identity changes. A nil identity
	// means the session ended. The returned function unsubscribes.
	OnAuthStateChange(fn func(*types.Identity)) (unsubscribe func())
}

// ProfileStore reads and writes the profile and activity records of a user.
type ProfileStore interface {
	// GetProfile returns nil when no profile exists yet.
	GetProfile(ctx context.Context, userID string) (*types.ProfileRecord, error)
	UpsertProfile(ctx context.Context, userID string, patch types.ProfilePatch) error
	// GetActivityLogs returns at most limit entries, newest first.
	GetActivityLogs(ctx context.Context, userID string, limit int) ([]types.ActivityLogEntry, error)
	ChangePassword(ctx context.Context, newPassword string) error
}

// Client is the per-visitor handle on a backend. It keeps whatever session
// credentials the backend issues for that visitor.
type Client interface {
	SessionGateway
	ProfileStore
	// Credential is the opaque session credential the backend issued on
	// SignIn, or "" when the client holds no session.
	Credential() string
}

// Backend opens visitor clients against one identity and database provider.
type Backend interface {
	Name() string
	NewClient() Client
	// Resume opens a client holding credential. Boot then finds the session
	// if the backend still honours it.
	Resume(credential string) Client
	Close() error
}

// ActivitySink persists activity events outside of any visitor session.
type ActivitySink interface {
	RecordActivity(ctx context.Context, event types.ActivityEvent) error
}
