// Package app holds the per-visitor page/view state machine.
package app

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/types"
)

// SignUpSuccessMessage is shown after a successful registration.
const SignUpSuccessMessage = "Cadastro realizado! Faça login para continuar."

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnknownView       = errors.New("unknown view")
	ErrBusy              = errors.New("operation already in progress")
)

// Machine owns the AppState of one workspace. Every transition is applied
// under its lock; gateway calls are made without holding it.
type Machine struct {
	gateway gateway.SessionGateway
	logger  *zap.Logger

	mu       sync.Mutex
	state    types.AppState
	identity *types.Identity
	signing  bool
	booted   bool
	version  uint64

	unsubscribe func()
	listeners   []func(Transition)
}

// Transition describes a change of page, applied by the machine.
type Transition struct {
	From     types.Page
	To       types.Page
	Identity *types.Identity
}

// NewMachine builds a machine in the initial state and subscribes it to the
// gateway's auth-state changes.
func NewMachine(gw gateway.SessionGateway, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Machine{
		gateway: gw,
		logger:  logger,
		state:   types.InitialAppState(),
	}
	m.unsubscribe = gw.OnAuthStateChange(m.applyAuthEvent)
	return m
}

// OnTransition registers fn to be called after every page change.
// Listeners run outside the machine lock.
func (m *Machine) OnTransition(fn func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// State returns a copy of the current state.
func (m *Machine) State() types.AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyState(m.state)
}

// Identity returns the signed in identity, or nil on the login page.
func (m *Machine) Identity() *types.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	identity := *m.identity
	return &identity
}

// Version increases on every state change; renderers use it to detect staleness.
func (m *Machine) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// Boot restores an existing backend session. It runs at most once; later
// calls return immediately.
func (m *Machine) Boot(ctx context.Context) {
	m.mu.Lock()
	if m.booted {
		m.mu.Unlock()
		return
	}
	m.booted = true
	m.mu.Unlock()

	identity, err := m.gateway.CurrentUser(ctx)
	if err != nil {
		m.logger.Warn("restore session", zap.Error(err))
		return
	}
	if identity == nil {
		return
	}
	m.enterDashboard(identity)
}

// SignIn authenticates and moves to the dashboard on success. Failures are
// returned as *gateway.AuthError and leave the state unchanged.
func (m *Machine) SignIn(ctx context.Context, email, password string) error {
	m.mu.Lock()
	if m.signing {
		m.mu.Unlock()
		return ErrBusy
	}
	m.signing = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.signing = false
		m.mu.Unlock()
	}()

	identity, err := m.gateway.SignIn(ctx, email, password)
	if err != nil {
		authErr := gateway.AsAuthError(err)
		m.logger.Info("sign in failed", zap.String("email", email), zap.Error(authErr.Err))
		return authErr
	}

	m.enterDashboard(&identity)
	return nil
}

// SignUp registers a new account. It never changes the page.
func (m *Machine) SignUp(ctx context.Context, email, password string) error {
	m.mu.Lock()
	if m.signing {
		m.mu.Unlock()
		return ErrBusy
	}
	m.signing = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.signing = false
		m.mu.Unlock()
	}()

	if _, err := m.gateway.SignUp(ctx, email, password); err != nil {
		authErr := gateway.AsAuthError(err)
		m.logger.Info("sign up failed", zap.String("email", email), zap.Error(authErr.Err))
		return authErr
	}
	return nil
}

// Login moves from LOGIN to the dashboard overview as username. The
// username doubles as the identity id, so the dashboard mounts exactly as
// it does after SignIn.
func (m *Machine) Login(username string) error {
	identity := types.Identity{ID: username}
	if !m.enter(&identity, username, true) {
		return ErrInvalidTransition
	}
	return nil
}

// Navigate switches the dashboard view.
func (m *Machine) Navigate(view types.View) error {
	if !view.Valid() {
		return ErrUnknownView
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.CurrentPage != types.PageDashboard {
		return gateway.ErrNotAuthenticated
	}
	if m.state.CurrentView == view {
		return nil
	}
	m.state.CurrentView = view
	m.version++
	return nil
}

// RequestLogout opens the logout confirmation modal.
func (m *Machine) RequestLogout() {
	m.setLogoutModal(true)
}

// CancelLogout closes the logout confirmation modal.
func (m *Machine) CancelLogout() {
	m.setLogoutModal(false)
}

// ConfirmLogout signs out and resets the session state. The reset happens
// even when the backend fails to end the session.
func (m *Machine) ConfirmLogout(ctx context.Context) {
	if err := m.gateway.SignOut(ctx); err != nil {
		m.logger.Warn("sign out", zap.Error(err))
	}
	m.reset()
}

// ToggleTheme flips dark mode.
func (m *Machine) ToggleTheme() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsDarkMode = !m.state.IsDarkMode
	m.version++
	return m.state.IsDarkMode
}

// Close stops listening to auth-state changes.
func (m *Machine) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *Machine) setLogoutModal(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.CurrentPage != types.PageDashboard {
		return
	}
	if m.state.IsLogoutModalOpen != open {
		m.state.IsLogoutModalOpen = open
		m.version++
	}
}

// applyAuthEvent handles a gateway notification. The last event received wins.
func (m *Machine) applyAuthEvent(identity *types.Identity) {
	if identity == nil {
		m.reset()
		return
	}
	m.enterDashboard(identity)
}

// enterDashboard sets the signed in identity. From LOGIN it opens the
// overview; on the dashboard it keeps the current view. Listeners only hear
// about a page or user change.
func (m *Machine) enterDashboard(identity *types.Identity) {
	m.enter(identity, identity.DisplayLabel(), false)
}

// enter shows the dashboard for identity under label. With loginOnly it
// refuses unless the machine is on the login page.
func (m *Machine) enter(identity *types.Identity, label string, loginOnly bool) bool {
	stored := *identity

	m.mu.Lock()
	from := m.state.CurrentPage
	if loginOnly && from != types.PageLogin {
		m.mu.Unlock()
		return false
	}
	if from != types.PageDashboard {
		m.state.CurrentView = types.ViewOverview
	}
	m.state.CurrentPage = types.PageDashboard
	m.state.User = &label
	m.state.IsLogoutModalOpen = false
	sameUser := m.identity != nil && m.identity.ID == stored.ID
	m.identity = &stored
	m.version++
	listeners := m.listeners
	m.mu.Unlock()

	if from == types.PageDashboard && sameUser {
		return true
	}
	notify(listeners, Transition{From: from, To: types.PageDashboard, Identity: &stored})
	return true
}

func (m *Machine) reset() {
	m.mu.Lock()
	from := m.state.CurrentPage
	dark := m.state.IsDarkMode
	m.state = types.InitialAppState()
	m.state.IsDarkMode = dark
	m.identity = nil
	m.version++
	listeners := m.listeners
	m.mu.Unlock()

	if from != types.PageLogin {
		notify(listeners, Transition{From: from, To: types.PageLogin})
	}
}

func notify(listeners []func(Transition), t Transition) {
	for _, fn := range listeners {
		fn(t)
	}
}

func copyState(s types.AppState) types.AppState {
	if s.User != nil {
		user := *s.User
		s.User = &user
	}
	return s
}
