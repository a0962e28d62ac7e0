//go:build integration

package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/testutil/containers"
)

const (
	ddlIdentities = `CREATE TABLE IF NOT EXISTS identities (
		principal TEXT PRIMARY KEY,
		content_address TEXT NOT NULL,
		status TEXT NOT NULL,
		registered_at TIMESTAMPTZ NOT NULL,
		acting_verifiers TEXT[] NOT NULL DEFAULT '{}'
	)`
	ddlVerifiers = `CREATE TABLE IF NOT EXISTS verifiers (
		principal TEXT PRIMARY KEY,
		added_at TIMESTAMPTZ NOT NULL
	)`
	ddlEvents = `CREATE TABLE IF NOT EXISTS ledger_events (
		seq BIGSERIAL PRIMARY KEY,
		id UUID NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		actor TEXT NOT NULL,
		subject TEXT NOT NULL,
		content_address TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL
	)`
)

func TestPostgresStoreIntegration(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	pc.Exec(t, ddlIdentities, ddlVerifiers, ddlEvents)

	store := NewPostgresStore(pc.DB)
	ctx := context.Background()

	reset := func(t *testing.T) {
		t.Helper()
		pc.Exec(t, `TRUNCATE identities, verifiers, ledger_events RESTART IDENTITY`)
	}

	t.Run("update and get round trip", func(t *testing.T) {
		reset(t)
		subject := testPrincipal(t, 0x30)
		verifier := testPrincipal(t, 0x31)
		registeredAt := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

		_, err := store.UpdateIdentity(ctx, subject, func(current Record) (Record, []Event, error) {
			require.Equal(t, StatusNotRegistered, current.Status)
			return Record{
				Owner:          subject,
				ContentAddress: "bafypostgres",
				RegisteredAt:   registeredAt,
				Status:         StatusPending,
			}, nil, nil
		})
		require.NoError(t, err)

		rec, err := store.UpdateIdentity(ctx, subject, func(current Record) (Record, []Event, error) {
			require.Equal(t, StatusPending, current.Status)
			next := current
			next.Status = StatusVerified
			next.ActingVerifiers = []domain.Principal{verifier}
			return next, nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, StatusVerified, rec.Status)

		got, err := store.GetIdentity(ctx, subject)
		require.NoError(t, err)
		assert.Equal(t, "bafypostgres", got.ContentAddress)
		assert.True(t, got.RegisteredAt.Equal(registeredAt))
		assert.Equal(t, []domain.Principal{verifier}, got.ActingVerifiers)
	})

	t.Run("failed update rolls back record and events", func(t *testing.T) {
		reset(t)
		subject := testPrincipal(t, 0x32)

		boom := dErrors.New(dErrors.CodeConflict, "identity already registered")
		_, err := store.UpdateIdentity(ctx, subject, func(current Record) (Record, []Event, error) {
			next := current
			next.Status = StatusPending
			ev := Event{ID: uuid.New(), Kind: EventIdentityRegistered, Actor: subject, Subject: subject, Timestamp: time.Now().UTC()}
			return next, []Event{ev}, boom
		})
		require.ErrorIs(t, err, boom)

		rec, err := store.GetIdentity(ctx, subject)
		require.NoError(t, err)
		assert.Equal(t, StatusNotRegistered, rec.Status)

		events, err := store.ListEvents(ctx, subject, "")
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("verifier membership is a transactional check and set", func(t *testing.T) {
		reset(t)
		alice := testPrincipal(t, 0x33)
		bob := testPrincipal(t, 0x34)

		ev := func(kind EventKind, subject domain.Principal) Event {
			return Event{ID: uuid.New(), Kind: kind, Actor: alice, Subject: subject, Timestamp: time.Now().UTC()}
		}

		require.NoError(t, store.AddVerifier(ctx, alice, ev(EventVerifierAdded, alice)))
		require.NoError(t, store.AddVerifier(ctx, bob, ev(EventVerifierAdded, bob)))

		err := store.AddVerifier(ctx, alice, ev(EventVerifierAdded, alice))
		require.ErrorIs(t, err, ErrAlreadyMember)

		// The rejected add must not have committed its event.
		events, err := store.ListEvents(ctx, alice, EventVerifierAdded)
		require.NoError(t, err)
		assert.Len(t, events, 1)

		members, err := store.ListVerifiers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Principal{alice, bob}, members)

		require.NoError(t, store.RemoveVerifier(ctx, alice, ev(EventVerifierRemoved, alice)))
		isMember, err := store.IsVerifier(ctx, alice)
		require.NoError(t, err)
		assert.False(t, isMember)

		err = store.RemoveVerifier(ctx, alice, ev(EventVerifierRemoved, alice))
		require.ErrorIs(t, err, ErrNotMember)
	})

	t.Run("events are ordered by commit and filterable by kind", func(t *testing.T) {
		reset(t)
		subject := testPrincipal(t, 0x35)
		actor := testPrincipal(t, 0x36)

		seed := []Event{
			{ID: uuid.New(), Kind: EventIdentityRegistered, Actor: subject, Subject: subject, ContentAddress: "bafyseed", Timestamp: time.Now().UTC()},
			{ID: uuid.New(), Kind: EventIdentityVerified, Actor: actor, Subject: subject, Timestamp: time.Now().UTC()},
		}
		_, err := store.UpdateIdentity(ctx, subject, func(current Record) (Record, []Event, error) {
			return current, seed, nil
		})
		require.NoError(t, err)

		events, err := store.ListEvents(ctx, subject, "")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, EventIdentityRegistered, events[0].Kind)
		assert.Equal(t, "bafyseed", events[0].ContentAddress)
		assert.Equal(t, EventIdentityVerified, events[1].Kind)

		events, err = store.ListEvents(ctx, actor, EventIdentityVerified)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, subject, events[0].Subject)
	})

	t.Run("service flow runs end to end on postgres", func(t *testing.T) {
		reset(t)
		owner := testPrincipal(t, 0x37)
		verifier := testPrincipal(t, 0x38)
		subject := testPrincipal(t, 0x39)

		svc := NewService(store, owner, testLogger(), nil)

		require.NoError(t, svc.AddVerifier(ctx, owner, verifier))
		_, err := svc.RegisterIdentity(ctx, subject, "bafyservice")
		require.NoError(t, err)

		rec, err := svc.VerifyIdentity(ctx, verifier, subject)
		require.NoError(t, err)
		assert.Equal(t, StatusVerified, rec.Status)
		assert.Equal(t, []domain.Principal{verifier}, rec.ActingVerifiers)

		events, err := svc.EventsBy(ctx, subject, "")
		require.NoError(t, err)
		require.Len(t, events, 2)
	})

	t.Run("concurrent registration has one winner", func(t *testing.T) {
		reset(t)
		owner := testPrincipal(t, 0x3a)
		subject := testPrincipal(t, 0x3b)
		svc := NewService(store, owner, testLogger(), nil)

		const writers = 6
		results := make([]error, writers)

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = svc.RegisterIdentity(ctx, subject, "bafyrace")
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range results {
			if err == nil {
				winners++
				continue
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "unexpected loser error: %v", err)
		}
		assert.Equal(t, 1, winners)

		events, err := store.ListEvents(ctx, subject, EventIdentityRegistered)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
}
