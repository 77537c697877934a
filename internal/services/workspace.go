// Package services holds the per-visitor workspaces: each one owns a state
// machine, a request ledger, a pager and a profile editor bound to one
// backend client.
package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/internal/activity"
	"github.com/retro-admin/dashboard/internal/app"
	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/internal/insight"
	"github.com/retro-admin/dashboard/internal/ledger"
	"github.com/retro-admin/dashboard/internal/pagination"
	"github.com/retro-admin/dashboard/internal/profile"
	"github.com/retro-admin/dashboard/types"
)

// ErrInvalidRequestType is returned when a request is created with an unknown category.
var ErrInvalidRequestType = errors.New("invalid request type")

// Deps are the collaborators shared by every workspace.
type Deps struct {
	// NewSource returns the ledger source of a new workspace.
	NewSource func() ledger.Source
	Avatars   *profile.AvatarService
	Activity  *activity.Recorder
	Insight   *insight.Service
	Logger    *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.NewSource == nil {
		d.NewSource = func() ledger.Source { return ledger.NewGenerator() }
	}
	if d.Avatars == nil {
		d.Avatars = profile.NewAvatarService(nil, d.Logger)
	}
	if d.Activity == nil {
		d.Activity = activity.NewRecorder(nil, d.Logger)
	}
	if d.Insight == nil {
		d.Insight = insight.NewWithModel(nil, d.Logger)
	}
	return d
}

// Workspace is the server-side session of one browser visitor.
type Workspace struct {
	id      string
	client  gateway.Client
	machine *app.Machine
	deps    Deps
	logger  *zap.Logger

	mu       sync.Mutex
	ledger   *ledger.Ledger
	source   ledger.Source
	pager    *pagination.Pager
	editor   *profile.Editor
	loaded   bool
	banner   string
	lastSeen time.Time
	flash    Flash
}

// Flash is a one-shot message carried to the next rendered page.
type Flash struct {
	Notice string
	Error  string
}

// NewWorkspace binds a fresh state machine to client.
func NewWorkspace(id string, client gateway.Client, deps Deps) *Workspace {
	deps = deps.withDefaults()
	logger := deps.Logger.With(zap.String("workspace", id))
	w := &Workspace{
		id:      id,
		client:  client,
		machine: app.NewMachine(client, logger),
		deps:    deps,
		logger:  logger,
		ledger:  ledger.New(),
		source:  deps.NewSource(),
		pager:   pagination.NewPager(),
		banner:  insight.DefaultBanner,
	}
	w.machine.OnTransition(w.onTransition)
	return w
}

func (w *Workspace) ID() string {
	return w.id
}

// Touch marks the workspace as used at now.
func (w *Workspace) Touch(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = now
}

// LastSeen returns the time of the last Touch.
func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// SetFlash replaces the pending flash.
func (w *Workspace) SetFlash(f Flash) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flash = f
}

// TakeFlash returns the pending flash and clears it.
func (w *Workspace) TakeFlash() Flash {
	w.mu.Lock()
	defer w.mu.Unlock()
	f := w.flash
	w.flash = Flash{}
	return f
}

// onTransition mounts or unmounts the dashboard. Entering it seeds a fresh
// ledger and binds the profile editor; leaving it drops both.
func (w *Workspace) onTransition(t app.Transition) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ledger.Reset()
	w.pager.Reset()
	w.banner = insight.DefaultBanner
	w.loaded = false
	w.editor = nil

	if t.To != types.PageDashboard || t.Identity == nil {
		return
	}
	ledger.Seed(w.ledger, w.source, ledger.SeedSize)
	w.editor = profile.NewEditor(w.client, *t.Identity, w.logger)
}

// Boot restores an existing backend session once.
func (w *Workspace) Boot(ctx context.Context) {
	w.machine.Boot(ctx)
}

// Credential is the backend session credential held by the workspace client.
func (w *Workspace) Credential() string {
	return w.client.Credential()
}

func (w *Workspace) State() types.AppState {
	return w.machine.State()
}

func (w *Workspace) Identity() *types.Identity {
	return w.machine.Identity()
}

// Version changes whenever the visible state may have changed.
func (w *Workspace) Version() uint64 {
	return w.machine.Version()
}

func (w *Workspace) SignIn(ctx context.Context, email, password string) error {
	if err := w.machine.SignIn(ctx, email, password); err != nil {
		return err
	}
	if identity := w.machine.Identity(); identity != nil {
		w.deps.Activity.Record(ctx, identity.ID, activity.DescLogin, types.ActivityStatusOK)
	}
	return nil
}

// SignUp registers an account and returns the confirmation message.
func (w *Workspace) SignUp(ctx context.Context, email, password string) (string, error) {
	if err := w.machine.SignUp(ctx, email, password); err != nil {
		return "", err
	}
	return app.SignUpSuccessMessage, nil
}

func (w *Workspace) Navigate(view types.View) error {
	return w.machine.Navigate(view)
}

func (w *Workspace) ToggleTheme() bool {
	return w.machine.ToggleTheme()
}

func (w *Workspace) RequestLogout() {
	w.machine.RequestLogout()
}

func (w *Workspace) CancelLogout() {
	w.machine.CancelLogout()
}

// ConfirmLogout signs out and returns to the login page whatever the backend says.
func (w *Workspace) ConfirmLogout(ctx context.Context) {
	if identity := w.machine.Identity(); identity != nil {
		w.deps.Activity.Record(ctx, identity.ID, activity.DescLogout, types.ActivityStatusOK)
	}
	w.machine.ConfirmLogout(ctx)
}

// requireDashboard returns the signed in identity, or ErrNotAuthenticated.
func (w *Workspace) requireDashboard() (types.Identity, error) {
	identity := w.machine.Identity()
	if identity == nil || w.machine.State().CurrentPage != types.PageDashboard {
		return types.Identity{}, gateway.ErrNotAuthenticated
	}
	return *identity, nil
}

// CreateRequest generates a ledger entry of the given category. An empty
// category draws one at random.
func (w *Workspace) CreateRequest(ctx context.Context, requestType types.RequestType) (types.RequestEntry, error) {
	identity, err := w.requireDashboard()
	if err != nil {
		return types.RequestEntry{}, err
	}
	if requestType != "" && !requestType.Valid() {
		return types.RequestEntry{}, ErrInvalidRequestType
	}

	w.mu.Lock()
	entry := w.source.Generate(requestType)
	w.ledger.Append(entry)
	w.mu.Unlock()

	w.deps.Activity.Record(ctx, identity.ID, activity.RequestGenerated(entry), types.ActivityStatusOK)
	return entry, nil
}

// Entries returns the ledger newest first.
func (w *Workspace) Entries() []types.RequestEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.Entries()
}

// RequestsPage returns the visible page of the ledger.
func (w *Workspace) RequestsPage() pagination.Page[types.RequestEntry] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return pagination.Apply(w.pager, w.ledger.Entries())
}

// GoToPage moves to page; out-of-range pages are ignored.
func (w *Workspace) GoToPage(page int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pager.GoTo(page, w.ledger.Len())
}

func (w *Workspace) NextPage() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pager.Next(w.ledger.Len())
}

func (w *Workspace) PrevPage() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pager.Prev(w.ledger.Len())
}

// SetPageSize changes the page size and returns to the first page.
func (w *Workspace) SetPageSize(size int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pager.SetPageSize(size)
}

// Report aggregates the ledger.
func (w *Workspace) Report() ledger.Summary {
	return ledger.Summarize(w.Entries())
}

// Banner returns the last status line produced by RefreshInsight.
func (w *Workspace) Banner() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.banner
}

// RefreshInsight asks the insight service for a new status line.
func (w *Workspace) RefreshInsight(ctx context.Context) (string, error) {
	if _, err := w.requireDashboard(); err != nil {
		return "", err
	}
	banner := w.deps.Insight.Banner(ctx, w.Report())

	w.mu.Lock()
	defer w.mu.Unlock()
	w.banner = banner
	return banner, nil
}

func (w *Workspace) currentEditor() (*profile.Editor, error) {
	if _, err := w.requireDashboard(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.editor == nil {
		return nil, gateway.ErrNotAuthenticated
	}
	return w.editor, nil
}

// Profile returns the profile editor snapshot, loading the record on first use.
func (w *Workspace) Profile(ctx context.Context) (profile.Snapshot, error) {
	editor, err := w.currentEditor()
	if err != nil {
		return profile.Snapshot{}, err
	}

	w.mu.Lock()
	load := !w.loaded
	w.loaded = true
	w.mu.Unlock()

	if load {
		editor.Load(ctx)
	}
	return editor.Snapshot(), nil
}

func (w *Workspace) BeginEdit() error {
	editor, err := w.currentEditor()
	if err != nil {
		return err
	}
	editor.BeginEdit()
	return nil
}

func (w *Workspace) CancelEdit(ctx context.Context) error {
	editor, err := w.currentEditor()
	if err != nil {
		return err
	}
	editor.CancelEdit(ctx)
	return nil
}

func (w *Workspace) SaveProfile(ctx context.Context, draft profile.Draft) error {
	editor, err := w.currentEditor()
	if err != nil {
		return err
	}
	if err := editor.Save(ctx, draft); err != nil {
		return err
	}
	w.recordForCurrent(ctx, activity.DescProfileUpdated, types.ActivityStatusOK)
	return nil
}

// UploadAvatar thumbnails and stores r as the user's avatar.
func (w *Workspace) UploadAvatar(ctx context.Context, r io.Reader) (string, error) {
	identity, err := w.requireDashboard()
	if err != nil {
		return "", err
	}
	editor, err := w.currentEditor()
	if err != nil {
		return "", err
	}
	previous := editor.Snapshot().Profile.AvatarURL
	url, err := w.deps.Avatars.Upload(ctx, w.client, identity.ID, r)
	if err != nil {
		return "", err
	}
	editor.SetAvatar(url)
	if previous != nil && *previous != url {
		if err := w.deps.Avatars.Remove(ctx, identity.ID, *previous); err != nil {
			w.logger.Warn("remove previous avatar", zap.String("user_id", identity.ID), zap.Error(err))
		}
	}
	w.deps.Activity.Record(ctx, identity.ID, activity.DescAvatarUpdated, types.ActivityStatusOK)
	return url, nil
}

func (w *Workspace) ChangePassword(ctx context.Context, newPassword string) error {
	editor, err := w.currentEditor()
	if err != nil {
		return err
	}
	if err := editor.ChangePassword(ctx, newPassword); err != nil {
		w.recordForCurrent(ctx, activity.DescPasswordRejected, types.ActivityStatusWarning)
		return err
	}
	w.recordForCurrent(ctx, activity.DescPasswordChanged, types.ActivityStatusOK)
	return nil
}

// ActivityLogs returns the latest entries of the user's access history.
// Failures degrade to an empty list.
func (w *Workspace) ActivityLogs(ctx context.Context) []types.ActivityLogEntry {
	identity, err := w.requireDashboard()
	if err != nil {
		return nil
	}
	logs, err := w.client.GetActivityLogs(ctx, identity.ID, gateway.DefaultActivityLimit)
	if err != nil {
		w.logger.Warn("load activity logs", zap.String("user_id", identity.ID), zap.Error(err))
		return nil
	}
	return logs
}

func (w *Workspace) recordForCurrent(ctx context.Context, description, status string) {
	if identity := w.machine.Identity(); identity != nil {
		w.deps.Activity.Record(ctx, identity.ID, description, status)
	}
}

// Close detaches the workspace from its backend client.
func (w *Workspace) Close() {
	w.machine.Close()
}
