package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/types"
)

func authKind(t *testing.T, err error) gateway.AuthKind {
	t.Helper()
	var authErr *gateway.AuthError
	require.True(t, errors.As(err, &authErr), "expected AuthError, got %v", err)
	return authErr.Kind
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	backend := New()
	client := backend.NewClient()

	identity, err := client.SignUp(ctx, " Ana@Example.com ", "password123")
	require.NoError(t, err)
	require.NotNil(t, identity.Email)
	assert.Equal(t, "ana@example.com", *identity.Email)

	current, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current, "sign up does not open a session")

	_, err = client.SignUp(ctx, "ana@example.com", "password123")
	assert.Equal(t, gateway.AuthDuplicateAccount, authKind(t, err))

	_, err = client.SignIn(ctx, "ana@example.com", "wrong-password")
	assert.Equal(t, gateway.AuthInvalidCredentials, authKind(t, err))

	signedIn, err := client.SignIn(ctx, "ana@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, signedIn.ID)

	current, err = client.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, identity.ID, current.ID)
}

func TestSignUpValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		backend  *Backend
		email    string
		password string
		want     gateway.AuthKind
	}{
		{"invalid email", New(), "not-an-email", "password123", gateway.AuthInvalidEmail},
		{"short password", New(), "a@b.com", "short", gateway.AuthWeakPassword},
		{"registration disabled", New(WithSignUpDisabled()), "a@b.com", "password123", gateway.AuthRegistrationDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.backend.NewClient().SignUp(ctx, tt.email, tt.password)
			assert.Equal(t, tt.want, authKind(t, err))
		})
	}
}

func TestAuthStateNotifications(t *testing.T) {
	ctx := context.Background()
	backend := New()
	client := backend.NewClient()
	_, err := client.SignUp(ctx, "ops@example.com", "password123")
	require.NoError(t, err)

	var events []*types.Identity
	unsubscribe := client.OnAuthStateChange(func(identity *types.Identity) {
		events = append(events, identity)
	})

	_, err = client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, client.SignOut(ctx))
	unsubscribe()
	_, err = client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)

	require.Len(t, events, 2)
	require.NotNil(t, events[0])
	assert.Nil(t, events[1])
}

func TestSignOutFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	backend := New()
	client := backend.NewClient()
	_, err := client.SignUp(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	_, err = client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)

	backend.SetFailures(errors.New("network down"), nil, nil)
	assert.Error(t, client.SignOut(ctx))

	current, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.NotNil(t, current)
}

func TestProfileUpsertMergesPatch(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	backend := New(WithClock(func() time.Time { return fixed }))
	client := backend.NewClient()

	record, err := client.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, record)

	name, role := "ANA", "Supervisora"
	require.NoError(t, client.UpsertProfile(ctx, "u1", types.ProfilePatch{FullName: &name, Role: &role}))

	avatar := "/avatars/u1/a.jpg"
	require.NoError(t, client.UpsertProfile(ctx, "u1", types.ProfilePatch{AvatarURL: &avatar}))

	record, err = client.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "ANA", record.FullName)
	assert.Equal(t, "Supervisora", record.Role)
	require.NotNil(t, record.AvatarURL)
	assert.Equal(t, avatar, *record.AvatarURL)
	assert.Equal(t, fixed, record.UpdatedAt)
}

func TestStoreFailuresAreStoreErrors(t *testing.T) {
	ctx := context.Background()
	backend := New()
	backend.SetFailures(nil, errors.New("write refused"), errors.New("read refused"))
	client := backend.NewClient()

	var storeErr *gateway.StoreError
	err := client.UpsertProfile(ctx, "u1", types.ProfilePatch{})
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, gateway.OpUpsertProfile, storeErr.Op)

	_, err = client.GetProfile(ctx, "u1")
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, gateway.OpGetProfile, storeErr.Op)

	_, err = client.GetActivityLogs(ctx, "u1", 0)
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, gateway.OpActivityLogs, storeErr.Op)
}

func TestActivityLogsNewestFirstAndLimited(t *testing.T) {
	ctx := context.Background()
	backend := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		require.NoError(t, backend.RecordActivity(ctx, types.ActivityEvent{
			UserID:      "u1",
			Description: "event",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	assert.Error(t, backend.RecordActivity(ctx, types.ActivityEvent{Description: "no user"}))

	logs, err := backend.NewClient().GetActivityLogs(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, logs, gateway.DefaultActivityLimit)
	assert.Equal(t, base.Add(14*time.Minute), logs[0].CreatedAt)
	assert.Equal(t, types.ActivityStatusOK, logs[0].Status)
	for i := 1; i < len(logs); i++ {
		assert.True(t, logs[i-1].CreatedAt.After(logs[i].CreatedAt))
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	backend := New()
	client := backend.NewClient()

	var storeErr *gateway.StoreError
	require.True(t, errors.As(client.ChangePassword(ctx, "newpassword1"), &storeErr))

	_, err := client.SignUp(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	_, err = client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)

	assert.Equal(t, gateway.AuthWeakPassword, authKind(t, client.ChangePassword(ctx, "short")))
	require.NoError(t, client.ChangePassword(ctx, "newpassword1"))

	other := backend.NewClient()
	_, err = other.SignIn(ctx, "ops@example.com", "password123")
	assert.Equal(t, gateway.AuthInvalidCredentials, authKind(t, err))
	_, err = other.SignIn(ctx, "ops@example.com", "newpassword1")
	assert.NoError(t, err)
}

func TestResumeRestoresSession(t *testing.T) {
	ctx := context.Background()
	backend := New()
	client := backend.NewClient()
	assert.Empty(t, client.Credential())

	_, err := client.SignUp(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	identity, err := client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	token := client.Credential()
	require.NotEmpty(t, token)

	resumed := backend.Resume(token)
	current, err := resumed.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, identity.ID, current.ID)

	require.NoError(t, client.SignOut(ctx))
	current, err = backend.Resume(token).CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current, "signed out tokens are revoked")

	current, err = backend.Resume("unknown").CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

// Run with -race: password changes and sign-ins share the account record.
func TestConcurrentSignInAndChangePassword(t *testing.T) {
	ctx := context.Background()
	backend := New()
	owner := backend.NewClient()
	_, err := owner.SignUp(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	_, err = owner.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = owner.ChangePassword(ctx, fmt.Sprintf("password-%03d", i))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = backend.NewClient().SignIn(ctx, "ops@example.com", "password123")
		}()
	}
	wg.Wait()

	_, err = backend.NewClient().SignIn(ctx, "ops@example.com", "password123")
	assert.Equal(t, gateway.AuthInvalidCredentials, authKind(t, err))
}
