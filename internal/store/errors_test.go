package store

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestMapWriteError(t *testing.T) {
	assert.ErrorIs(t, mapWriteError(&pq.Error{Code: "23505"}), ErrConflict)

	other := &pq.Error{Code: "23503"}
	assert.Equal(t, error(other), mapWriteError(other))

	plain := errors.New("boom")
	assert.Equal(t, plain, mapWriteError(plain))
}
