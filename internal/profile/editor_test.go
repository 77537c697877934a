package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/internal/gateway/memory"
	"github.com/retro-admin/dashboard/types"
)

func strPtr(s string) *string { return &s }

func TestLoadDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("no record uses email local part", func(t *testing.T) {
		e := NewEditor(memory.New().NewClient(), types.Identity{ID: "u1", Email: strPtr("ana.souza@example.com")}, nil)
		got := e.Load(ctx)
		assert.Equal(t, "ANA.SOUZA", got.FullName)
		assert.Equal(t, DefaultRole, got.Role)
	})

	t.Run("no email", func(t *testing.T) {
		e := NewEditor(memory.New().NewClient(), types.Identity{ID: "u1"}, nil)
		assert.Equal(t, DefaultFullName, e.Load(ctx).FullName)
	})

	t.Run("read failure degrades", func(t *testing.T) {
		backend := memory.New()
		backend.SetFailures(nil, nil, errors.New("timeout"))
		e := NewEditor(backend.NewClient(), types.Identity{ID: "u1", Email: strPtr("ops@example.com")}, nil)
		got := e.Load(ctx)
		assert.Equal(t, "OPS", got.FullName)
		assert.Equal(t, Viewing, e.Snapshot().Mode)
	})

	t.Run("stored record wins", func(t *testing.T) {
		backend := memory.New()
		client := backend.NewClient()
		require.NoError(t, client.UpsertProfile(ctx, "u1", types.ProfilePatch{FullName: strPtr("MARIA")}))
		e := NewEditor(client, types.Identity{ID: "u1"}, nil)
		got := e.Load(ctx)
		assert.Equal(t, "MARIA", got.FullName)
		assert.Equal(t, DefaultRole, got.Role)
	})
}

func TestEditSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	client := backend.NewClient()
	e := NewEditor(client, types.Identity{ID: "u1", Email: strPtr("ops@example.com")}, nil)
	e.Load(ctx)

	e.BeginEdit()
	snap := e.Snapshot()
	assert.Equal(t, Editing, snap.Mode)
	assert.Equal(t, Draft{FullName: "OPS", Role: DefaultRole}, snap.Draft)

	require.NoError(t, e.Save(ctx, Draft{FullName: "  joana dias ", Role: "Gerente"}))
	snap = e.Snapshot()
	assert.Equal(t, Viewing, snap.Mode)
	assert.Equal(t, "JOANA DIAS", snap.Profile.FullName)
	assert.Equal(t, "Gerente", snap.Profile.Role)

	stored, err := client.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "JOANA DIAS", stored.FullName)
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	e := NewEditor(backend.NewClient(), types.Identity{ID: "u1"}, nil)
	e.Load(ctx)
	e.BeginEdit()

	backend.SetFailures(nil, errors.New("permission denied"), nil)
	err := e.Save(ctx, Draft{FullName: "novo nome", Role: "Analista"})

	var storeErr *gateway.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "Erro ao atualizar perfil.", storeErr.Message())

	snap := e.Snapshot()
	assert.Equal(t, Editing, snap.Mode)
	assert.Equal(t, Draft{FullName: "NOVO NOME", Role: "Analista"}, snap.Draft)
	assert.Equal(t, DefaultFullName, snap.Profile.FullName)
	assert.False(t, snap.Saving)
}

// blockingStore holds UpsertProfile until released.
type blockingStore struct {
	gateway.ProfileStore
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) UpsertProfile(ctx context.Context, userID string, patch types.ProfilePatch) error {
	b.entered <- struct{}{}
	<-b.release
	return b.ProfileStore.UpsertProfile(ctx, userID, patch)
}

func TestSaveWhileSavingIsBusy(t *testing.T) {
	ctx := context.Background()
	store := &blockingStore{
		ProfileStore: memory.New().NewClient(),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	e := NewEditor(store, types.Identity{ID: "u1"}, nil)

	done := make(chan error, 1)
	go func() { done <- e.Save(ctx, Draft{FullName: "a", Role: "b"}) }()

	<-store.entered
	assert.True(t, e.Snapshot().Saving)
	assert.ErrorIs(t, e.Save(ctx, Draft{FullName: "c"}), ErrBusy)
	close(store.release)
	require.NoError(t, <-done)
	assert.Equal(t, "A", e.Snapshot().Profile.FullName)
}

func TestCancelEditReloads(t *testing.T) {
	ctx := context.Background()
	client := memory.New().NewClient()
	e := NewEditor(client, types.Identity{ID: "u1"}, nil)
	e.Load(ctx)
	e.BeginEdit()

	require.NoError(t, client.UpsertProfile(ctx, "u1", types.ProfilePatch{FullName: strPtr("OUTRO")}))
	e.CancelEdit(ctx)

	snap := e.Snapshot()
	assert.Equal(t, Viewing, snap.Mode)
	assert.Equal(t, Draft{}, snap.Draft)
	assert.Equal(t, "OUTRO", snap.Profile.FullName)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	client := memory.New().NewClient()
	e := NewEditor(client, types.Identity{ID: "u1"}, nil)

	var storeErr *gateway.StoreError
	err := e.ChangePassword(ctx, "newpassword1")
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "Erro ao trocar senha.", storeErr.Message())

	_, err = client.SignUp(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	_, err = client.SignIn(ctx, "ops@example.com", "password123")
	require.NoError(t, err)

	var authErr *gateway.AuthError
	require.True(t, errors.As(e.ChangePassword(ctx, "short"), &authErr))
	assert.Equal(t, gateway.AuthWeakPassword, authErr.Kind)
	assert.NoError(t, e.ChangePassword(ctx, "newpassword1"))
}
