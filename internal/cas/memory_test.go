package cas_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestry/internal/cas"
	"attestry/internal/cas/castest"
)

func TestMemoryConformance(t *testing.T) {
	castest.RunConformance(t, func(t *testing.T) cas.Store {
		return cas.NewMemory()
	})
}

func TestMemoryReturnsDefensiveCopies(t *testing.T) {
	ctx := context.Background()
	store := cas.NewMemory()

	original := []byte("immutable bytes")
	id, err := store.Put(ctx, original)
	require.NoError(t, err)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	got[0] ^= 0xff

	again, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable bytes"), again)
}

func TestMemoryLen(t *testing.T) {
	ctx := context.Background()
	store := cas.NewMemory()
	assert.Zero(t, store.Len())

	_, err := store.Put(ctx, []byte("one"))
	require.NoError(t, err)
	_, err = store.Put(ctx, []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}
