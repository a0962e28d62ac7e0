// Package castest exercises the cas.Store contract against any
// implementation. Every backend, in-process or networked, runs the same
// suite so contract drift between them surfaces as a test failure.
package castest

import (
	"context"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestry/internal/cas"
	dErrors "attestry/pkg/domain-errors"
)

// Factory constructs a fresh, empty store for one test. The returned store
// must be isolated from other tests.
type Factory func(t *testing.T) cas.Store

// RunConformance runs the full contract suite against stores built by
// newStore.
func RunConformance(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("put get round trip", func(t *testing.T) {
		store := newStore(t)
		want := []byte("sealed document bytes")

		id, err := store.Put(ctx, want)
		require.NoError(t, err)

		wantID, err := cas.AddressForBytes(want)
		require.NoError(t, err)
		assert.Equal(t, wantID, id)

		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("put is idempotent", func(t *testing.T) {
		store := newStore(t)
		data := []byte("same bytes")

		first, err := store.Put(ctx, data)
		require.NoError(t, err)
		second, err := store.Put(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("distinct bytes get distinct addresses", func(t *testing.T) {
		store := newStore(t)

		a, err := store.Put(ctx, []byte("a"))
		require.NoError(t, err)
		b, err := store.Put(ctx, []byte("b"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("empty payload is storable", func(t *testing.T) {
		store := newStore(t)

		id, err := store.Put(ctx, nil)
		require.NoError(t, err)
		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("get absent address is not found", func(t *testing.T) {
		store := newStore(t)
		id, err := cas.AddressForBytes([]byte("never stored"))
		require.NoError(t, err)

		_, err = store.Get(ctx, id)
		require.Error(t, err)
		assert.True(t, cas.IsNotFound(err))

		ok, err := store.Has(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("has after put", func(t *testing.T) {
		store := newStore(t)

		id, err := store.Put(ctx, []byte("present"))
		require.NoError(t, err)
		ok, err := store.Has(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("undefined address is rejected", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Get(ctx, cid.Undef)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
