// Package profile implements the view/edit flow of the admin profile card.
package profile

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/types"
)

// Defaults used when the store has no profile or cannot be read.
const (
	DefaultFullName = "USUÁRIO"
	DefaultRole     = "Supervisor de Operações IA"
)

// ErrBusy is returned when a save is attempted while another is in flight.
var ErrBusy = errors.New("save already in progress")

// Mode is the state of the profile card.
type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

// Draft holds the editable fields while in Editing mode.
type Draft struct {
	FullName string
	Role     string
}

// Snapshot is a point-in-time copy of the editor for rendering.
type Snapshot struct {
	Mode    Mode
	Profile types.ProfileRecord
	Draft   Draft
	Saving  bool
}

// Editor drives loading, editing and saving of one user's profile.
type Editor struct {
	store    gateway.ProfileStore
	identity types.Identity
	logger   *zap.Logger

	mu      sync.Mutex
	mode    Mode
	profile types.ProfileRecord
	draft   Draft
	saving  bool
}

// NewEditor returns an editor in Viewing mode holding the default profile of identity.
func NewEditor(store gateway.ProfileStore, identity types.Identity, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{
		store:    store,
		identity: identity,
		logger:   logger,
		profile:  defaultProfile(identity),
	}
}

// Load fetches the profile. A missing record or a store failure leaves the
// defaults in place; the failure is logged, never returned.
func (e *Editor) Load(ctx context.Context) types.ProfileRecord {
	record, err := e.store.GetProfile(ctx, e.identity.ID)
	profile := defaultProfile(e.identity)
	switch {
	case err != nil:
		e.logger.Warn("load profile", zap.String("user_id", e.identity.ID), zap.Error(err))
	case record != nil:
		profile = mergeDefaults(*record, profile)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.profile = profile
	return copyProfile(profile)
}

// Snapshot returns the current mode, profile and draft.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Mode:    e.mode,
		Profile: copyProfile(e.profile),
		Draft:   e.draft,
		Saving:  e.saving,
	}
}

// BeginEdit copies the current profile into the draft and enters Editing mode.
func (e *Editor) BeginEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = Draft{FullName: e.profile.FullName, Role: e.profile.Role}
	e.mode = Editing
}

// Save persists draft. The full name is stored upper-cased. On failure the
// editor stays in Editing mode with draft retained and a *gateway.StoreError
// is returned.
func (e *Editor) Save(ctx context.Context, draft Draft) error {
	draft.FullName = strings.ToUpper(strings.TrimSpace(draft.FullName))
	draft.Role = strings.TrimSpace(draft.Role)

	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return ErrBusy
	}
	e.saving = true
	e.mode = Editing
	e.draft = draft
	e.mu.Unlock()

	err := e.store.UpsertProfile(ctx, e.identity.ID, types.ProfilePatch{
		FullName: &draft.FullName,
		Role:     &draft.Role,
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		e.logger.Warn("save profile", zap.String("user_id", e.identity.ID), zap.Error(err))
		return asStoreError(gateway.OpUpsertProfile, err)
	}
	e.profile.FullName = draft.FullName
	e.profile.Role = draft.Role
	e.mode = Viewing
	return nil
}

// CancelEdit drops the draft and reloads the profile from the store.
func (e *Editor) CancelEdit(ctx context.Context) {
	e.mu.Lock()
	e.draft = Draft{}
	e.mode = Viewing
	e.mu.Unlock()

	e.Load(ctx)
}

// SetAvatar records a new avatar URL after a successful upload.
func (e *Editor) SetAvatar(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profile.AvatarURL = &url
}

// ChangePassword delegates to the store. Authentication failures keep their
// *gateway.AuthError; anything else becomes a *gateway.StoreError.
func (e *Editor) ChangePassword(ctx context.Context, newPassword string) error {
	err := e.store.ChangePassword(ctx, newPassword)
	if err == nil {
		return nil
	}
	e.logger.Warn("change password", zap.String("user_id", e.identity.ID), zap.Error(err))

	var authErr *gateway.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return asStoreError(gateway.OpChangePassword, err)
}

func asStoreError(op string, err error) *gateway.StoreError {
	var storeErr *gateway.StoreError
	if errors.As(err, &storeErr) {
		return storeErr
	}
	return &gateway.StoreError{Op: op, Err: err}
}

func defaultProfile(identity types.Identity) types.ProfileRecord {
	name := DefaultFullName
	if identity.Email != nil {
		if local, _, _ := strings.Cut(*identity.Email, "@"); local != "" {
			name = strings.ToUpper(local)
		}
	}
	return types.ProfileRecord{FullName: name, Role: DefaultRole}
}

func mergeDefaults(record, defaults types.ProfileRecord) types.ProfileRecord {
	if strings.TrimSpace(record.FullName) == "" {
		record.FullName = defaults.FullName
	}
	if strings.TrimSpace(record.Role) == "" {
		record.Role = defaults.Role
	}
	return record
}

func copyProfile(p types.ProfileRecord) types.ProfileRecord {
	if p.AvatarURL != nil {
		avatar := *p.AvatarURL
		p.AvatarURL = &avatar
	}
	return p
}
