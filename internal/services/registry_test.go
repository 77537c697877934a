package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retro-admin/dashboard/internal/gateway/memory"
	"github.com/retro-admin/dashboard/types"
)

func TestRegistry_CreateGetRemove(t *testing.T) {
	r := NewRegistry(memory.New(), Deps{}, time.Hour)
	defer r.Close()

	ws := r.Create()
	got, ok := r.Get(ws.ID())
	require.True(t, ok)
	assert.Same(t, ws, got)
	assert.Equal(t, 1, r.Len())

	other := r.Create()
	assert.NotEqual(t, ws.ID(), other.ID())

	r.Remove(ws.ID())
	_, ok = r.Get(ws.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ResumeAfterEviction(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	_, err := backend.NewClient().SignUp(ctx, "ops@example.com", "password123")
	require.NoError(t, err)

	r := NewRegistry(backend, Deps{}, time.Hour)
	defer r.Close()

	ws := r.Create()
	require.NoError(t, ws.SignIn(ctx, "ops@example.com", "password123"))
	credential := ws.Credential()
	require.NotEmpty(t, credential)

	r.Sweep(time.Now().Add(48 * time.Hour))
	_, ok := r.Get(ws.ID())
	require.False(t, ok)

	resumed := r.Resume(credential)
	assert.NotEqual(t, ws.ID(), resumed.ID())
	resumed.Boot(ctx)
	assert.Equal(t, types.PageDashboard, resumed.State().CurrentPage)
	assert.Equal(t, 15, len(resumed.Entries()))

	fresh := r.Resume("")
	fresh.Boot(ctx)
	assert.Equal(t, types.PageLogin, fresh.State().CurrentPage)
}

func TestRegistry_Sweep(t *testing.T) {
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	now := base
	r := NewRegistry(memory.New(), Deps{}, time.Hour)
	r.now = func() time.Time { return now }
	defer r.Close()

	stale := r.Create()
	now = base.Add(50 * time.Minute)
	fresh := r.Create()

	assert.Equal(t, 0, r.Sweep(base.Add(59*time.Minute)))

	now = base.Add(90 * time.Minute)
	assert.Equal(t, 1, r.Sweep(now))
	_, ok := r.Get(stale.ID())
	assert.False(t, ok)
	_, ok = r.Get(fresh.ID())
	assert.True(t, ok)
}

func TestRegistry_RunStopsWithContext(t *testing.T) {
	r := NewRegistry(memory.New(), Deps{}, 4*time.Millisecond)
	defer r.Close()

	past := time.Now().Add(-time.Hour)
	ws := r.Create()
	ws.Touch(past)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return r.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestJanitorInterval(t *testing.T) {
	assert.Equal(t, time.Second, janitorInterval(time.Millisecond))
	assert.Equal(t, 3*time.Minute+45*time.Second, janitorInterval(15*time.Minute))
	assert.Equal(t, 5*time.Minute, janitorInterval(12*time.Hour))
}
