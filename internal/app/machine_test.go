package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/internal/gateway/memory"
	"github.com/retro-admin/dashboard/types"
)

func strPtr(s string) *string { return &s }

func newSignedUpMachine(t *testing.T) (*Machine, *memory.Backend) {
	t.Helper()
	backend := memory.New()
	client := backend.NewClient()
	_, err := client.SignUp(context.Background(), "ops@example.com", "password123")
	require.NoError(t, err)

	m := NewMachine(client, nil)
	t.Cleanup(m.Close)
	return m, backend
}

func TestInitialState(t *testing.T) {
	m, _ := newSignedUpMachine(t)
	want := types.AppState{CurrentPage: types.PageLogin, CurrentView: types.ViewOverview}
	if diff := cmp.Diff(want, m.State()); diff != "" {
		t.Fatalf("initial state mismatch (-want +got):\n%s", diff)
	}
}

func TestSignInSuccess(t *testing.T) {
	m, _ := newSignedUpMachine(t)

	var transitions []Transition
	m.OnTransition(func(tr Transition) { transitions = append(transitions, tr) })

	require.NoError(t, m.SignIn(context.Background(), "ops@example.com", "password123"))

	want := types.AppState{
		CurrentPage: types.PageDashboard,
		CurrentView: types.ViewOverview,
		User:        strPtr("ops@example.com"),
	}
	if diff := cmp.Diff(want, m.State()); diff != "" {
		t.Fatalf("state after sign in (-want +got):\n%s", diff)
	}
	require.Len(t, transitions, 1)
	assert.Equal(t, types.PageDashboard, transitions[0].To)
	require.NotNil(t, m.Identity())
}

func TestSignInFailureStaysOnLogin(t *testing.T) {
	m, _ := newSignedUpMachine(t)

	err := m.SignIn(context.Background(), "ops@example.com", "wrong-password")
	var authErr *gateway.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "E-mail ou senha inválidos.", authErr.Error())
	assert.Equal(t, types.PageLogin, m.State().CurrentPage)
	assert.Nil(t, m.State().User)
}

func TestSignUpNeverTransitions(t *testing.T) {
	m, _ := newSignedUpMachine(t)

	require.NoError(t, m.SignUp(context.Background(), "new@example.com", "password123"))
	assert.Equal(t, types.PageLogin, m.State().CurrentPage)

	err := m.SignUp(context.Background(), "new@example.com", "password123")
	assert.Equal(t, "Este e-mail já está cadastrado.", err.Error())
}

func TestLoginOnlyFromLoginPage(t *testing.T) {
	m, _ := newSignedUpMachine(t)
	require.NoError(t, m.Login("admin"))
	require.NoError(t, m.Navigate(types.ViewReports))

	before := m.State()
	assert.ErrorIs(t, m.Login("other"), ErrInvalidTransition)
	if diff := cmp.Diff(before, m.State()); diff != "" {
		t.Fatalf("login from dashboard changed state:\n%s", diff)
	}
}

func TestLoginMountsDashboardLikeSignIn(t *testing.T) {
	m, _ := newSignedUpMachine(t)
	var transitions []Transition
	m.OnTransition(func(tr Transition) { transitions = append(transitions, tr) })

	require.NoError(t, m.Login("admin"))

	require.Len(t, transitions, 1)
	require.NotNil(t, transitions[0].Identity)
	assert.Equal(t, "admin", transitions[0].Identity.ID)
	require.NotNil(t, m.Identity())
	assert.Equal(t, "admin", m.Identity().ID)
}

func TestNavigateSequence(t *testing.T) {
	m, _ := newSignedUpMachine(t)
	assert.ErrorIs(t, m.Navigate(types.ViewReports), gateway.ErrNotAuthenticated)

	require.NoError(t, m.Login("admin"))

	for _, view := range []types.View{types.ViewRequests, types.ViewRequests, types.ViewAdmin, types.ViewSettings, types.ViewOverview} {
		require.NoError(t, m.Navigate(view))
		state := m.State()
		assert.Equal(t, view, state.CurrentView)
		assert.Equal(t, types.PageDashboard, state.CurrentPage)
		assert.Equal(t, "admin", *state.User)
	}

	assert.ErrorIs(t, m.Navigate(types.View("BILLING")), ErrUnknownView)
	assert.Equal(t, types.ViewOverview, m.State().CurrentView)
}

func TestLogoutModal(t *testing.T) {
	m, _ := newSignedUpMachine(t)

	m.RequestLogout()
	assert.False(t, m.State().IsLogoutModalOpen, "modal stays closed on the login page")

	require.NoError(t, m.Login("admin"))
	m.RequestLogout()
	assert.True(t, m.State().IsLogoutModalOpen)
	m.CancelLogout()
	assert.False(t, m.State().IsLogoutModalOpen)
	assert.Equal(t, types.PageDashboard, m.State().CurrentPage)
}

func TestConfirmLogoutResetsEvenWhenSignOutFails(t *testing.T) {
	for _, signOutErr := range []error{nil, errors.New("network down")} {
		m, backend := newSignedUpMachine(t)
		require.NoError(t, m.SignIn(context.Background(), "ops@example.com", "password123"))
		require.NoError(t, m.Navigate(types.ViewAdmin))
		m.ToggleTheme()
		m.RequestLogout()

		backend.SetFailures(signOutErr, nil, nil)
		m.ConfirmLogout(context.Background())

		want := types.InitialAppState()
		want.IsDarkMode = true
		if diff := cmp.Diff(want, m.State()); diff != "" {
			t.Fatalf("state after logout (signOutErr=%v) (-want +got):\n%s", signOutErr, diff)
		}
		assert.Nil(t, m.Identity())
	}
}

func TestToggleTheme(t *testing.T) {
	m, _ := newSignedUpMachine(t)
	assert.True(t, m.ToggleTheme())
	assert.False(t, m.ToggleTheme())
}

func TestBootRestoresSession(t *testing.T) {
	backend := memory.New()
	client := backend.NewClient()
	ctx := context.Background()
	_, err := client.SignUp(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	_, err = client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)

	m := NewMachine(client, nil)
	defer m.Close()
	m.Boot(ctx)

	state := m.State()
	assert.Equal(t, types.PageDashboard, state.CurrentPage)
	assert.Equal(t, "ops@example.com", *state.User)
}

// scriptedGateway lets tests drive auth-state events and block sign-in.
type scriptedGateway struct {
	notifier gateway.Notifier
	release  chan struct{}
	entered  chan struct{}
	current  *types.Identity
	err      error
}

func (g *scriptedGateway) SignIn(ctx context.Context, email, _ string) (types.Identity, error) {
	if g.entered != nil {
		g.entered <- struct{}{}
		<-g.release
	}
	return types.Identity{ID: "id-" + email, Email: &email}, nil
}

func (g *scriptedGateway) SignUp(context.Context, string, string) (types.Identity, error) {
	return types.Identity{}, nil
}

func (g *scriptedGateway) SignOut(context.Context) error { return nil }

func (g *scriptedGateway) CurrentUser(context.Context) (*types.Identity, error) {
	return g.current, g.err
}

func (g *scriptedGateway) OnAuthStateChange(fn func(*types.Identity)) func() {
	return g.notifier.Subscribe(fn)
}

func TestAuthEventsLastEventWins(t *testing.T) {
	gw := &scriptedGateway{}
	m := NewMachine(gw, nil)
	defer m.Close()

	gw.notifier.Publish(&types.Identity{ID: "u1", Email: strPtr("first@example.com")})
	require.NoError(t, m.Navigate(types.ViewReports))
	gw.notifier.Publish(&types.Identity{ID: "u2"})

	state := m.State()
	assert.Equal(t, types.PageDashboard, state.CurrentPage)
	assert.Equal(t, types.ViewReports, state.CurrentView, "view kept while on the dashboard")
	assert.Equal(t, types.FallbackUserLabel, *state.User)

	gw.notifier.Publish(nil)
	assert.Equal(t, types.PageLogin, m.State().CurrentPage)

	m.Close()
	gw.notifier.Publish(&types.Identity{ID: "u3"})
	assert.Equal(t, types.PageLogin, m.State().CurrentPage, "no events after close")
}

func TestBootFailureStaysOnLogin(t *testing.T) {
	gw := &scriptedGateway{err: errors.New("backend unreachable")}
	m := NewMachine(gw, nil)
	defer m.Close()

	m.Boot(context.Background())
	assert.Equal(t, types.PageLogin, m.State().CurrentPage)
}

func TestConcurrentSignInIsBusy(t *testing.T) {
	gw := &scriptedGateway{entered: make(chan struct{}), release: make(chan struct{})}
	m := NewMachine(gw, nil)
	defer m.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		firstErr = m.SignIn(context.Background(), "a@example.com", "password123")
	}()

	<-gw.entered
	assert.ErrorIs(t, m.SignIn(context.Background(), "a@example.com", "password123"), ErrBusy)
	close(gw.release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.Equal(t, types.PageDashboard, m.State().CurrentPage)
}
