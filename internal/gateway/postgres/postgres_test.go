package postgres

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/internal/store"
	"github.com/retro-admin/dashboard/types"
)

// fakeRepos mimics the SQL repositories in memory.
type fakeRepos struct {
	mu       sync.Mutex
	accounts map[string]types.Account
	sessions map[string]fakeSession
	profiles map[string]types.ProfileRecord
	logs     []types.ActivityEvent
	listErr  error
}

type fakeSession struct {
	userID    string
	expiresAt time.Time
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{
		accounts: make(map[string]types.Account),
		sessions: make(map[string]fakeSession),
		profiles: make(map[string]types.ProfileRecord),
	}
}

func (f *fakeRepos) repositories() Repositories {
	return Repositories{
		Users:    fakeUsers{f},
		Sessions: fakeSessions{f},
		Profiles: fakeProfiles{f},
		Activity: fakeActivity{f},
	}
}

type fakeUsers struct{ *fakeRepos }

func (f fakeUsers) GetByID(_ context.Context, id string) (types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[email]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (f fakeUsers) Create(_ context.Context, account types.Account) (types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[account.Email]; exists {
		return types.Account{}, store.ErrConflict
	}
	f.accounts[account.Email] = account
	return account, nil
}

func (f fakeUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, account := range f.accounts {
		if account.ID == id {
			account.PasswordHash = passwordHash
			f.accounts[email] = account
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeSessions struct{ *fakeRepos }

func (f fakeSessions) Create(_ context.Context, token, userID string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[token] = fakeSession{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f fakeSessions) Lookup(_ context.Context, token string) (types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[token]
	if !ok || !session.expiresAt.After(time.Now()) {
		return types.Account{}, store.ErrNotFound
	}
	for _, account := range f.accounts {
		if account.ID == session.userID {
			return account, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (f fakeSessions) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

type fakeProfiles struct{ *fakeRepos }

func (f fakeProfiles) Get(_ context.Context, userID string) (types.ProfileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.profiles[userID]
	if !ok {
		return types.ProfileRecord{}, store.ErrNotFound
	}
	return record, nil
}

func (f fakeProfiles) Upsert(_ context.Context, userID string, patch types.ProfilePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record := f.profiles[userID]
	if patch.FullName != nil {
		record.FullName = *patch.FullName
	}
	if patch.Role != nil {
		record.Role = *patch.Role
	}
	if patch.AvatarURL != nil {
		record.AvatarURL = patch.AvatarURL
	}
	f.profiles[userID] = record
	return nil
}

type fakeActivity struct{ *fakeRepos }

func (f fakeActivity) List(_ context.Context, userID string, limit int) ([]types.ActivityLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var entries []types.ActivityLogEntry
	for _, event := range f.logs {
		if event.UserID == userID {
			entries = append(entries, types.ActivityLogEntry{CreatedAt: event.CreatedAt, Description: event.Description, Status: event.Status})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f fakeActivity) Create(_ context.Context, event types.ActivityEvent) (types.ActivityLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, event)
	return types.ActivityLogEntry{Description: event.Description}, nil
}

func newTestBackend(allowSignUp bool) (*Backend, *fakeRepos) {
	repos := newFakeRepos()
	return New(repos.repositories(), allowSignUp, time.Hour, nil).WithHashCost(bcrypt.MinCost), repos
}

func kindOf(t *testing.T, err error) gateway.AuthKind {
	t.Helper()
	var authErr *gateway.AuthError
	require.True(t, errors.As(err, &authErr), "expected AuthError, got %v", err)
	return authErr.Kind
}

func TestSignUpSignInSignOut(t *testing.T) {
	ctx := context.Background()
	backend, repos := newTestBackend(true)
	client := backend.NewClient()

	var events []*types.Identity
	client.OnAuthStateChange(func(identity *types.Identity) { events = append(events, identity) })

	identity, err := client.SignUp(ctx, "Ops@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", *identity.Email)

	_, err = client.SignUp(ctx, "ops@example.com", "password123")
	assert.Equal(t, gateway.AuthDuplicateAccount, kindOf(t, err))

	_, err = client.SignIn(ctx, "ops@example.com", "bad-password")
	assert.Equal(t, gateway.AuthInvalidCredentials, kindOf(t, err))
	_, err = client.SignIn(ctx, "nobody@example.com", "password123")
	assert.Equal(t, gateway.AuthInvalidCredentials, kindOf(t, err))

	_, err = client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	current, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, identity.ID, current.ID)
	assert.Len(t, repos.sessions, 1)

	_, err = client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	assert.Len(t, repos.sessions, 1, "a second sign in replaces the previous session")

	require.NoError(t, client.SignOut(ctx))
	current, err = client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Empty(t, repos.sessions)

	require.Len(t, events, 3)
	assert.Nil(t, events[2])
}

func TestSignUpDisabled(t *testing.T) {
	backend, _ := newTestBackend(false)
	_, err := backend.NewClient().SignUp(context.Background(), "ops@example.com", "password123")
	assert.Equal(t, gateway.AuthRegistrationDisabled, kindOf(t, err))
}

func TestRevokedSessionIsNoSession(t *testing.T) {
	ctx := context.Background()
	backend, repos := newTestBackend(true)
	client := backend.NewClient()
	_, err := client.SignUp(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	_, err = client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)

	repos.mu.Lock()
	for token := range repos.sessions {
		delete(repos.sessions, token)
	}
	repos.mu.Unlock()

	current, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestResumeUsesStoredSession(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestBackend(true)
	client := backend.NewClient()
	_, err := client.SignUp(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	identity, err := client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)

	resumed := backend.Resume(client.Credential())
	current, err := resumed.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, identity.ID, current.ID)

	require.NoError(t, client.SignOut(ctx))
	assert.Empty(t, client.Credential())

	current, err = resumed.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Empty(t, resumed.Credential(), "a revoked token is dropped")
}

func TestProfileAndActivity(t *testing.T) {
	ctx := context.Background()
	backend, repos := newTestBackend(true)
	client := backend.NewClient()

	record, err := client.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, record)

	name := "ANA"
	require.NoError(t, client.UpsertProfile(ctx, "u1", types.ProfilePatch{FullName: &name}))
	record, err = client.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ANA", record.FullName)

	base := time.Now()
	for i := 0; i < 12; i++ {
		require.NoError(t, backend.RecordActivity(ctx, types.ActivityEvent{
			UserID:      "u1",
			Description: "login",
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}
	logs, err := client.GetActivityLogs(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, logs, gateway.DefaultActivityLimit)

	repos.listErr = errors.New("connection reset")
	_, err = client.GetActivityLogs(ctx, "u1", 5)
	var storeErr *gateway.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, gateway.OpActivityLogs, storeErr.Op)
}

func TestChangePasswordRequiresSession(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestBackend(true)
	client := backend.NewClient()

	var storeErr *gateway.StoreError
	require.True(t, errors.As(client.ChangePassword(ctx, "newpassword1"), &storeErr))

	_, err := client.SignUp(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	_, err = client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, client.ChangePassword(ctx, "newpassword1"))

	_, err = backend.NewClient().SignIn(ctx, "ops@example.com", "newpassword1")
	assert.NoError(t, err)
}
