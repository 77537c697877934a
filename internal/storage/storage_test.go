package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retro-admin/dashboard/config"
)

func TestOpenWithoutDriver(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.ErrorContains(t, err, "unsupported storage driver")
}

func TestOpenMinioRequiresEndpoint(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Driver: DriverMinio})
	assert.ErrorContains(t, err, "minio endpoint is required")
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StorageConfig{Driver: DriverMemory})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "avatars", s.Bucket())

	require.NoError(t, s.Put(ctx, "u1/a.jpg", strings.NewReader("jpeg"), 4, "image/jpeg"))

	r, err := s.Get(ctx, "u1/a.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	require.NoError(t, s.Delete(ctx, "u1/a.jpg"))
	_, err = s.Get(ctx, "u1/a.jpg")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}
