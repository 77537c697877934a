package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/config"
	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/internal/gateway/memory"
	"github.com/retro-admin/dashboard/types"
)

type mapKV struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	getErr  error
	gets    int
	deletes int
}

func newMapKV() *mapKV {
	return &mapKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mapKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *mapKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mapKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func ptr(s string) *string { return &s }

func signedInClient(t *testing.T, backend gateway.Backend) (gateway.Client, types.Identity) {
	t.Helper()
	ctx := context.Background()
	client := backend.NewClient()
	_, err := client.SignUp(ctx, "ana@example.com", "password123")
	require.NoError(t, err)
	identity, err := client.SignIn(ctx, "ana@example.com", "password123")
	require.NoError(t, err)
	return client, identity
}

func TestProfileCache_ReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	inner := memory.New()
	backend := NewProfileCache(kv, time.Minute, zap.NewNop()).Wrap(inner)
	assert.Equal(t, "memory", backend.Name())

	client, identity := signedInClient(t, backend)

	record, err := client.GetProfile(ctx, identity.ID)
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Empty(t, kv.values, "absent profiles are not cached")

	require.NoError(t, client.UpsertProfile(ctx, identity.ID, types.ProfilePatch{FullName: ptr("ANA"), Role: ptr("Operadora")}))

	record, err = client.GetProfile(ctx, identity.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "ANA", record.FullName)
	assert.Contains(t, kv.values, profileKey(identity.ID))
	assert.Equal(t, time.Minute, kv.ttls[profileKey(identity.ID)])

	// Served from cache even when the backend fails.
	inner.SetFailures(nil, nil, errors.New("down"))
	record, err = client.GetProfile(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "ANA", record.FullName)

	inner.SetFailures(nil, nil, nil)
	require.NoError(t, client.UpsertProfile(ctx, identity.ID, types.ProfilePatch{FullName: ptr("ANA MARIA")}))
	assert.NotContains(t, kv.values, profileKey(identity.ID))

	record, err = client.GetProfile(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "ANA MARIA", record.FullName)
	assert.Equal(t, "Operadora", record.Role)
}

func TestProfileCache_ReadErrorsFallThrough(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	kv.getErr = errors.New("connection reset")
	inner := memory.New()
	backend := NewProfileCache(kv, 0, nil).Wrap(inner)

	client, identity := signedInClient(t, backend)
	require.NoError(t, client.UpsertProfile(ctx, identity.ID, types.ProfilePatch{FullName: ptr("ANA")}))

	record, err := client.GetProfile(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "ANA", record.FullName)
	assert.Equal(t, defaultProfileTTL, kv.ttls[profileKey(identity.ID)])
}

func TestProfileCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	inner := memory.New()
	backend := NewProfileCache(kv, time.Minute, nil).Wrap(inner)

	client, identity := signedInClient(t, backend)
	require.NoError(t, client.UpsertProfile(ctx, identity.ID, types.ProfilePatch{FullName: ptr("ANA")}))
	kv.values[profileKey(identity.ID)] = "{"

	record, err := client.GetProfile(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "ANA", record.FullName)
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.ErrorContains(t, err, "failed to connect to redis")
}
