package cas

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestry/pkg/platform/circuit"
)

// failingStore always reports a transport fault and counts attempts.
type failingStore struct {
	calls atomic.Int64
}

func (s *failingStore) Put(context.Context, []byte) (cid.Cid, error) {
	s.calls.Add(1)
	return cid.Undef, ErrUnavailable
}

func (s *failingStore) Get(context.Context, cid.Cid) ([]byte, error) {
	s.calls.Add(1)
	return nil, ErrUnavailable
}

func (s *failingStore) Has(context.Context, cid.Cid) (bool, error) {
	s.calls.Add(1)
	return false, ErrUnavailable
}

func TestGuarded_OpensAfterConsecutiveFaults(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{}
	breaker := circuit.New("test", circuit.WithFailureThreshold(3))
	g := NewGuarded(inner, breaker, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for range 3 {
		_, err := g.Put(ctx, []byte("payload"))
		require.ErrorIs(t, err, ErrUnavailable)
	}
	require.True(t, breaker.IsOpen())

	// Open circuit fails fast without touching the backend.
	before := inner.calls.Load()
	_, err := g.Put(ctx, []byte("payload"))
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, before, inner.calls.Load())
}

func TestGuarded_ProbesAndCloses(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	breaker := circuit.New("test", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1))
	g := NewGuarded(inner, breaker, slog.New(slog.NewTextHandler(io.Discard, nil)))
	g.probeInterval = 0 // every call probes

	breaker.RecordFailure()
	require.True(t, breaker.IsOpen())

	// The probe reaches the healthy inner store and closes the circuit.
	id, err := g.Put(ctx, []byte("payload"))
	require.NoError(t, err)
	assert.False(t, breaker.IsOpen())

	data, err := g.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestGuarded_NotFoundCountsAsHealthy(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	breaker := circuit.New("test", circuit.WithFailureThreshold(1))
	g := NewGuarded(inner, breaker, slog.New(slog.NewTextHandler(io.Discard, nil)))

	absent, err := AddressForBytes([]byte("never stored"))
	require.NoError(t, err)

	_, err = g.Get(ctx, absent)
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, breaker.IsOpen(), "a miss from a healthy store must not trip the breaker")
}

func TestGuarded_FailFastIsQuick(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{}
	breaker := circuit.New("test", circuit.WithFailureThreshold(1))
	g := NewGuarded(inner, breaker, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, _ = g.Put(ctx, []byte("x"))
	require.True(t, breaker.IsOpen())

	start := time.Now()
	_, err := g.Put(ctx, []byte("x"))
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
