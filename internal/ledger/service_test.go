package ledger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// =============================================================================
// Ledger Service Test Suite
// =============================================================================

type LedgerServiceSuite struct {
	suite.Suite
	store   *MemoryStore
	sink    *captureSink
	service *Service

	owner domain.Principal
	alice domain.Principal
	bob   domain.Principal
	carol domain.Principal

	now time.Time
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.owner = testPrincipal(s.T(), 0x01)
	s.alice = testPrincipal(s.T(), 0x02)
	s.bob = testPrincipal(s.T(), 0x03)
	s.carol = testPrincipal(s.T(), 0x04)

	s.now = time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC)
	s.store = NewMemoryStore()
	s.sink = &captureSink{}
	s.service = NewService(s.store, s.owner, testLogger(), nil,
		WithEventSink(s.sink),
		WithClock(func() time.Time { return s.now }),
	)
}

func testPrincipal(t *testing.T, seed byte) domain.Principal {
	t.Helper()
	p, err := domain.PrincipalFromPublicKey(bytes.Repeat([]byte{seed}, 32))
	if err != nil {
		t.Fatalf("build principal: %v", err)
	}
	return p
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Publish(_ context.Context, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureSink) kinds() []EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EventKind, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Kind)
	}
	return out
}

// =============================================================================
// Query Defaults
// =============================================================================

func (s *LedgerServiceSuite) TestUnknownPrincipalDefaults() {
	ctx := context.Background()

	status, err := s.service.Status(ctx, s.alice)
	s.NoError(err)
	s.Equal(StatusNotRegistered, status)

	verified, err := s.service.IsVerified(ctx, s.alice)
	s.NoError(err)
	s.False(verified)

	addr, err := s.service.ContentAddress(ctx, s.alice)
	s.NoError(err)
	s.Empty(addr)

	acting, err := s.service.VerifiersOf(ctx, s.alice)
	s.NoError(err)
	s.Empty(acting)

	events, err := s.service.EventsBy(ctx, s.alice, "")
	s.NoError(err)
	s.Empty(events)
}

func (s *LedgerServiceSuite) TestQueriesRejectZeroPrincipal() {
	ctx := context.Background()

	_, err := s.service.Status(ctx, domain.Principal(""))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.EventsBy(ctx, domain.Principal(""), "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

// =============================================================================
// Registration
// =============================================================================

func (s *LedgerServiceSuite) TestRegisterIdentity() {
	ctx := context.Background()

	s.Run("creates pending record with address and timestamp", func() {
		rec, err := s.service.RegisterIdentity(ctx, s.alice, "bafytestmanifest")
		s.Require().NoError(err)
		s.Equal(StatusPending, rec.Status)
		s.Equal("bafytestmanifest", rec.ContentAddress)
		s.True(rec.RegisteredAt.Equal(s.now))
		s.Empty(rec.ActingVerifiers)
	})

	s.Run("zero principal is invalid input", func() {
		_, err := s.service.RegisterIdentity(ctx, domain.Principal(""), "bafyaddr")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("empty address is invalid input and leaves no record", func() {
		_, err := s.service.RegisterIdentity(ctx, s.bob, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		status, err := s.service.Status(ctx, s.bob)
		s.NoError(err)
		s.Equal(StatusNotRegistered, status)

		// The failed attempt must not burn the registration.
		_, err = s.service.RegisterIdentity(ctx, s.bob, "bafyretry")
		s.NoError(err)
	})

	s.Run("second registration conflicts and keeps the original address", func() {
		_, err := s.service.RegisterIdentity(ctx, s.alice, "bafyother")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		addr, err := s.service.ContentAddress(ctx, s.alice)
		s.NoError(err)
		s.Equal("bafytestmanifest", addr)
	})
}

func (s *LedgerServiceSuite) TestRejectedPrincipalCannotReRegister() {
	ctx := context.Background()

	_, err := s.service.RegisterIdentity(ctx, s.alice, "bafyfirst")
	s.Require().NoError(err)
	_, err = s.service.RejectIdentity(ctx, s.owner, s.alice)
	s.Require().NoError(err)

	_, err = s.service.RegisterIdentity(ctx, s.alice, "bafysecond")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	status, err := s.service.Status(ctx, s.alice)
	s.NoError(err)
	s.Equal(StatusRejected, status)
}

// =============================================================================
// Verification and Rejection
// =============================================================================

func (s *LedgerServiceSuite) TestVerifyIdentity() {
	ctx := context.Background()

	s.Run("owner verifies a pending identity", func() {
		_, err := s.service.RegisterIdentity(ctx, s.alice, "bafyalice")
		s.Require().NoError(err)

		rec, err := s.service.VerifyIdentity(ctx, s.owner, s.alice)
		s.Require().NoError(err)
		s.Equal(StatusVerified, rec.Status)
		s.Equal([]domain.Principal{s.owner}, rec.ActingVerifiers)

		verified, err := s.service.IsVerified(ctx, s.alice)
		s.NoError(err)
		s.True(verified)
	})

	s.Run("added verifier verifies a pending identity", func() {
		s.Require().NoError(s.service.AddVerifier(ctx, s.owner, s.carol))
		_, err := s.service.RegisterIdentity(ctx, s.bob, "bafybob")
		s.Require().NoError(err)

		rec, err := s.service.VerifyIdentity(ctx, s.carol, s.bob)
		s.Require().NoError(err)
		s.Equal(StatusVerified, rec.Status)

		acting, err := s.service.VerifiersOf(ctx, s.bob)
		s.NoError(err)
		s.Equal([]domain.Principal{s.carol}, acting)
	})

	s.Run("non-verifier is unauthorized and state is untouched", func() {
		stranger := testPrincipal(s.T(), 0x77)
		subject := testPrincipal(s.T(), 0x78)
		_, err := s.service.RegisterIdentity(ctx, subject, "bafysubject")
		s.Require().NoError(err)

		_, err = s.service.VerifyIdentity(ctx, stranger, subject)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		status, err := s.service.Status(ctx, subject)
		s.NoError(err)
		s.Equal(StatusPending, status)
	})

	s.Run("unregistered subject conflicts", func() {
		_, err := s.service.VerifyIdentity(ctx, s.owner, testPrincipal(s.T(), 0x79))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("second verification conflicts and keeps acting verifiers", func() {
		_, err := s.service.VerifyIdentity(ctx, s.owner, s.alice)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		acting, err := s.service.VerifiersOf(ctx, s.alice)
		s.NoError(err)
		s.Equal([]domain.Principal{s.owner}, acting)
	})

	s.Run("zero principals are invalid input", func() {
		_, err := s.service.VerifyIdentity(ctx, domain.Principal(""), s.alice)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = s.service.VerifyIdentity(ctx, s.owner, domain.Principal(""))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *LedgerServiceSuite) TestRejectIdentity() {
	ctx := context.Background()

	s.Run("verifier rejects a pending identity", func() {
		_, err := s.service.RegisterIdentity(ctx, s.alice, "bafyalice")
		s.Require().NoError(err)

		rec, err := s.service.RejectIdentity(ctx, s.owner, s.alice)
		s.Require().NoError(err)
		s.Equal(StatusRejected, rec.Status)

		// Rejection records the actor in the event log, not on the record.
		acting, err := s.service.VerifiersOf(ctx, s.alice)
		s.NoError(err)
		s.Empty(acting)
	})

	s.Run("rejecting a rejected identity conflicts", func() {
		_, err := s.service.RejectIdentity(ctx, s.owner, s.alice)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("non-verifier is unauthorized", func() {
		_, err := s.service.RegisterIdentity(ctx, s.bob, "bafybob")
		s.Require().NoError(err)

		_, err = s.service.RejectIdentity(ctx, s.carol, s.bob)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// =============================================================================
// Verifier Set Management
// =============================================================================

func (s *LedgerServiceSuite) TestVerifierManagement() {
	ctx := context.Background()

	s.Run("only the owner may add", func() {
		err := s.service.AddVerifier(ctx, s.alice, s.bob)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("zero target is invalid input", func() {
		err := s.service.AddVerifier(ctx, s.owner, domain.Principal(""))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("adding the owner is invalid input", func() {
		err := s.service.AddVerifier(ctx, s.owner, s.owner)
		s.True(errors.Is(err, ErrAlreadyMember))
	})

	s.Run("duplicate add is invalid input", func() {
		s.Require().NoError(s.service.AddVerifier(ctx, s.owner, s.alice))
		err := s.service.AddVerifier(ctx, s.owner, s.alice)
		s.True(errors.Is(err, ErrAlreadyMember))
	})

	s.Run("verifier list is owner first then insertion order", func() {
		s.Require().NoError(s.service.AddVerifier(ctx, s.owner, s.bob))

		members, err := s.service.Verifiers(ctx)
		s.NoError(err)
		s.Equal([]domain.Principal{s.owner, s.alice, s.bob}, members)
	})

	s.Run("only the owner may remove", func() {
		err := s.service.RemoveVerifier(ctx, s.alice, s.bob)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("removing the owner violates the set invariant", func() {
		err := s.service.RemoveVerifier(ctx, s.owner, s.owner)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("removing a non-member is invalid input", func() {
		err := s.service.RemoveVerifier(ctx, s.owner, s.carol)
		s.True(errors.Is(err, ErrNotMember))
	})

	s.Run("removed verifier loses verification rights", func() {
		s.Require().NoError(s.service.RemoveVerifier(ctx, s.owner, s.bob))

		subject := testPrincipal(s.T(), 0x80)
		_, err := s.service.RegisterIdentity(ctx, subject, "bafysubject")
		s.Require().NoError(err)

		_, err = s.service.VerifyIdentity(ctx, s.bob, subject)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// =============================================================================
// Event Log
// =============================================================================

func (s *LedgerServiceSuite) TestEventLog() {
	ctx := context.Background()

	s.Require().NoError(s.service.AddVerifier(ctx, s.owner, s.carol))
	_, err := s.service.RegisterIdentity(ctx, s.alice, "bafyalice")
	s.Require().NoError(err)
	_, err = s.service.VerifyIdentity(ctx, s.carol, s.alice)
	s.Require().NoError(err)

	s.Run("subject history is ordered oldest first", func() {
		events, err := s.service.EventsBy(ctx, s.alice, "")
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(EventIdentityRegistered, events[0].Kind)
		s.Equal(EventIdentityVerified, events[1].Kind)
		s.Equal("bafyalice", events[0].ContentAddress)
		s.NotEqual(uuid.Nil, events[0].ID)
	})

	s.Run("actor history includes events performed on others", func() {
		events, err := s.service.EventsBy(ctx, s.carol, "")
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(EventVerifierAdded, events[0].Kind)
		s.Equal(EventIdentityVerified, events[1].Kind)
	})

	s.Run("kind filter narrows the history", func() {
		events, err := s.service.EventsBy(ctx, s.alice, EventIdentityVerified)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(s.carol, events[0].Actor)
	})

	s.Run("sink receives each committed event", func() {
		s.Equal([]EventKind{EventVerifierAdded, EventIdentityRegistered, EventIdentityVerified}, s.sink.kinds())
	})

	s.Run("failed operations emit nothing", func() {
		before := len(s.sink.kinds())
		_, err := s.service.VerifyIdentity(ctx, s.carol, s.alice)
		s.Error(err)
		s.Len(s.sink.kinds(), before)
	})
}

// =============================================================================
// Store Failure Propagation
// =============================================================================

type erroringStore struct {
	Store
	err error
}

func (e *erroringStore) UpdateIdentity(context.Context, domain.Principal, UpdateFunc) (Record, error) {
	return Record{}, e.err
}

func (s *LedgerServiceSuite) TestStoreFailurePropagation() {
	ctx := context.Background()

	s.Run("coded store errors pass through", func() {
		svc := NewService(&erroringStore{
			Store: s.store,
			err:   dErrors.New(dErrors.CodeUnavailable, "ledger store unreachable"),
		}, s.owner, testLogger(), nil)

		_, err := svc.RegisterIdentity(ctx, s.alice, "bafyaddr")
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("uncoded store errors surface as internal", func() {
		svc := NewService(&erroringStore{
			Store: s.store,
			err:   errors.New("socket closed"),
		}, s.owner, testLogger(), nil)

		_, err := svc.RegisterIdentity(ctx, s.alice, "bafyaddr")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// Concurrency
// =============================================================================

func (s *LedgerServiceSuite) TestConcurrentVerifyHasOneWinner() {
	ctx := context.Background()

	s.Require().NoError(s.service.AddVerifier(ctx, s.owner, s.bob))
	s.Require().NoError(s.service.AddVerifier(ctx, s.owner, s.carol))
	_, err := s.service.RegisterIdentity(ctx, s.alice, "bafyalice")
	s.Require().NoError(err)

	verifiers := []domain.Principal{s.bob, s.carol}
	results := make([]error, len(verifiers))

	var wg sync.WaitGroup
	for i, v := range verifiers {
		wg.Add(1)
		go func(i int, v domain.Principal) {
			defer wg.Done()
			_, results[i] = s.service.VerifyIdentity(ctx, v, s.alice)
		}(i, v)
	}
	wg.Wait()

	winners := 0
	for i, err := range results {
		if err == nil {
			winners++
			continue
		}
		s.True(dErrors.HasCode(err, dErrors.CodeConflict), "loser %d: %v", i, err)
	}
	s.Equal(1, winners)

	acting, err := s.service.VerifiersOf(ctx, s.alice)
	s.NoError(err)
	s.Len(acting, 1, "only the winning verifier may be recorded")
}

func (s *LedgerServiceSuite) TestConcurrentRegistrationHasOneWinner() {
	ctx := context.Background()
	const writers = 8

	addrs := make([]string, writers)
	results := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		addrs[i] = "bafyconcurrent" + string(rune('a'+i))
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.service.RegisterIdentity(ctx, s.alice, addrs[i])
		}(i)
	}
	wg.Wait()

	winners := 0
	winnerAddr := ""
	for i, err := range results {
		if err == nil {
			winners++
			winnerAddr = addrs[i]
			continue
		}
		s.True(dErrors.HasCode(err, dErrors.CodeConflict), "loser %d: %v", i, err)
	}
	s.Equal(1, winners)

	addr, err := s.service.ContentAddress(ctx, s.alice)
	s.NoError(err)
	s.Equal(winnerAddr, addr)
}
