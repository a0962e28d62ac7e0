package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"attestry/internal/ledger/metrics"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// EventSink receives committed events for fan-out beyond the ledger's own
// log (message bus, audit pipelines). Publish must not block the caller.
type EventSink interface {
	Publish(ctx context.Context, event Event)
}

// Service enforces the identity transition rules on top of a Store.
//
// The deploying owner is fixed at construction: it is always a verifier,
// can never be removed, and is the only principal allowed to manage the
// verifier set. Owner membership is structural, not stored.
type Service struct {
	store   Store
	owner   domain.Principal
	logger  *slog.Logger
	metrics *metrics.Metrics
	sink    EventSink
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEventSink attaches a post-commit event fan-out.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithClock overrides the timestamp source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a ledger Service. owner is the deploying principal.
func NewService(store Store, owner domain.Principal, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		store:   store,
		owner:   owner,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Owner returns the deploying principal.
func (s *Service) Owner() domain.Principal { return s.owner }

// RegisterIdentity creates caller's identity record in Pending with
// contentAddress and the registration timestamp.
//
// Errors: CodeInvalidInput for a zero caller or empty address;
// CodeConflict when caller already holds a record in any state, including
// Rejected (rejection is permanent).
func (s *Service) RegisterIdentity(ctx context.Context, caller domain.Principal, contentAddress string) (Record, error) {
	if caller.IsZero() {
		return Record{}, s.reject("register", dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty"))
	}
	if contentAddress == "" {
		return Record{}, s.reject("register", dErrors.New(dErrors.CodeInvalidInput, "content address cannot be empty"))
	}

	now := s.now().UTC()
	var committed Event
	rec, err := s.store.UpdateIdentity(ctx, caller, func(current Record) (Record, []Event, error) {
		if current.Status != StatusNotRegistered {
			return Record{}, nil, dErrors.New(dErrors.CodeConflict, "identity already registered")
		}
		next := Record{
			Owner:          caller,
			ContentAddress: contentAddress,
			RegisteredAt:   now,
			Status:         StatusPending,
		}
		committed = Event{
			ID:             uuid.New(),
			Kind:           EventIdentityRegistered,
			Actor:          caller,
			Subject:        caller,
			ContentAddress: contentAddress,
			Timestamp:      now,
		}
		return next, []Event{committed}, nil
	})
	if err != nil {
		return Record{}, s.reject("register", err)
	}

	s.committed(ctx, "register", committed)
	return rec, nil
}

// VerifyIdentity transitions target from Pending to Verified and appends
// caller to the record's acting verifiers.
//
// Errors: CodeInvalidInput for zero principals; CodeUnauthorized when
// caller is not in the verifier set; CodeConflict when target is not
// Pending, including when it is already terminal.
func (s *Service) VerifyIdentity(ctx context.Context, caller, target domain.Principal) (Record, error) {
	return s.decide(ctx, "verify", caller, target, true)
}

// RejectIdentity transitions target from Pending to Rejected. The acting
// verifier is recorded in the event log but not on the record.
func (s *Service) RejectIdentity(ctx context.Context, caller, target domain.Principal) (Record, error) {
	return s.decide(ctx, "reject", caller, target, false)
}

func (s *Service) decide(ctx context.Context, op string, caller, target domain.Principal, approve bool) (Record, error) {
	if caller.IsZero() || target.IsZero() {
		return Record{}, s.reject(op, dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty"))
	}

	member, err := s.isVerifier(ctx, caller)
	if err != nil {
		return Record{}, s.reject(op, err)
	}
	if !member {
		return Record{}, s.reject(op, dErrors.New(dErrors.CodeUnauthorized, "caller is not a verifier"))
	}

	now := s.now().UTC()
	kind := EventIdentityVerified
	if !approve {
		kind = EventIdentityRejected
	}

	var committed Event
	rec, err := s.store.UpdateIdentity(ctx, target, func(current Record) (Record, []Event, error) {
		if current.Status != StatusPending {
			return Record{}, nil, dErrors.New(dErrors.CodeConflict, "identity is not pending")
		}
		next := current
		if approve {
			next.Status = StatusVerified
			next.ActingVerifiers = append(append([]domain.Principal(nil), current.ActingVerifiers...), caller)
		} else {
			next.Status = StatusRejected
		}
		committed = Event{
			ID:        uuid.New(),
			Kind:      kind,
			Actor:     caller,
			Subject:   target,
			Timestamp: now,
		}
		return next, []Event{committed}, nil
	})
	if err != nil {
		return Record{}, s.reject(op, err)
	}

	s.committed(ctx, op, committed)
	return rec, nil
}

// AddVerifier adds target to the verifier set. Owner-only.
//
// Errors: CodeUnauthorized when caller is not the owner; CodeInvalidInput
// when target is zero or already a member (the owner counts as a member).
func (s *Service) AddVerifier(ctx context.Context, caller, target domain.Principal) error {
	if caller != s.owner {
		return s.reject("add_verifier", dErrors.New(dErrors.CodeUnauthorized, "only the owner may manage verifiers"))
	}
	if target.IsZero() {
		return s.reject("add_verifier", dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty"))
	}
	if target == s.owner {
		return s.reject("add_verifier", ErrAlreadyMember)
	}

	now := s.now().UTC()
	ev := Event{
		ID:        uuid.New(),
		Kind:      EventVerifierAdded,
		Actor:     caller,
		Subject:   target,
		Timestamp: now,
	}
	if err := s.store.AddVerifier(ctx, target, ev); err != nil {
		return s.reject("add_verifier", err)
	}

	s.committed(ctx, "add_verifier", ev)
	s.refreshVerifierGauge(ctx)
	return nil
}

// RemoveVerifier removes target from the verifier set. Owner-only.
//
// Errors: CodeUnauthorized when caller is not the owner;
// CodeInvariantViolation when target is the owner; CodeInvalidInput when
// target is zero or not a member.
func (s *Service) RemoveVerifier(ctx context.Context, caller, target domain.Principal) error {
	if caller != s.owner {
		return s.reject("remove_verifier", dErrors.New(dErrors.CodeUnauthorized, "only the owner may manage verifiers"))
	}
	if target.IsZero() {
		return s.reject("remove_verifier", dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty"))
	}
	if target == s.owner {
		return s.reject("remove_verifier", dErrors.New(dErrors.CodeInvariantViolation, "the owner cannot be removed from the verifier set"))
	}

	now := s.now().UTC()
	ev := Event{
		ID:        uuid.New(),
		Kind:      EventVerifierRemoved,
		Actor:     caller,
		Subject:   target,
		Timestamp: now,
	}
	if err := s.store.RemoveVerifier(ctx, target, ev); err != nil {
		return s.reject("remove_verifier", err)
	}

	s.committed(ctx, "remove_verifier", ev)
	s.refreshVerifierGauge(ctx)
	return nil
}

// IsVerified reports whether target's identity is Verified.
func (s *Service) IsVerified(ctx context.Context, target domain.Principal) (bool, error) {
	rec, err := s.Identity(ctx, target)
	if err != nil {
		return false, err
	}
	return rec.Status == StatusVerified, nil
}

// Status returns target's lifecycle state, StatusNotRegistered for
// principals with no record.
func (s *Service) Status(ctx context.Context, target domain.Principal) (Status, error) {
	rec, err := s.Identity(ctx, target)
	if err != nil {
		return "", err
	}
	return rec.Status, nil
}

// ContentAddress returns target's registered manifest address, empty when
// not registered.
func (s *Service) ContentAddress(ctx context.Context, target domain.Principal) (string, error) {
	rec, err := s.Identity(ctx, target)
	if err != nil {
		return "", err
	}
	return rec.ContentAddress, nil
}

// VerifiersOf returns the principals who performed a verify action on
// target's record, in action order.
func (s *Service) VerifiersOf(ctx context.Context, target domain.Principal) ([]domain.Principal, error) {
	rec, err := s.Identity(ctx, target)
	if err != nil {
		return nil, err
	}
	return rec.ActingVerifiers, nil
}

// Identity returns target's full record, the NotRegistered sentinel when
// absent.
func (s *Service) Identity(ctx context.Context, target domain.Principal) (Record, error) {
	if target.IsZero() {
		return Record{}, dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty")
	}
	return s.store.GetIdentity(ctx, target)
}

// Verifiers returns the current verifier set, owner first.
func (s *Service) Verifiers(ctx context.Context) ([]domain.Principal, error) {
	members, err := s.store.ListVerifiers(ctx)
	if err != nil {
		return nil, err
	}
	return append([]domain.Principal{s.owner}, members...), nil
}

// EventsBy returns the event log entries involving principal as actor or
// subject, oldest first. An empty kind matches all kinds.
func (s *Service) EventsBy(ctx context.Context, principal domain.Principal, kind EventKind) ([]Event, error) {
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty")
	}
	return s.store.ListEvents(ctx, principal, kind)
}

func (s *Service) isVerifier(ctx context.Context, p domain.Principal) (bool, error) {
	if p == s.owner {
		return true, nil
	}
	return s.store.IsVerifier(ctx, p)
}

// refreshVerifierGauge updates the set-size gauge best effort. Failures
// are logged and dropped so gauge maintenance never fails a mutation.
func (s *Service) refreshVerifierGauge(ctx context.Context) {
	members, err := s.store.ListVerifiers(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "verifier gauge refresh failed", "error", err)
		return
	}
	s.metrics.SetVerifierSetSize(len(members))
}

// committed records metrics, logs, and fans out after a successful commit.
func (s *Service) committed(ctx context.Context, op string, ev Event) {
	s.metrics.IncTransition(op, "ok")
	s.logger.InfoContext(ctx, "ledger transition applied",
		"operation", op,
		"actor", ev.Actor.String(),
		"subject", ev.Subject.String(),
	)
	if s.sink != nil {
		s.sink.Publish(ctx, ev)
	}
}

// reject classifies a failed operation for metrics and returns err
// unchanged. Uncoded errors can only come from store plumbing and are
// wrapped as internal.
func (s *Service) reject(op string, err error) error {
	var coded *dErrors.Error
	if !errors.As(err, &coded) {
		err = dErrors.Wrap(err, dErrors.CodeInternal, "ledger store failure")
	}
	s.metrics.IncTransition(op, outcomeLabel(dErrors.CodeOf(err)))
	return err
}

func outcomeLabel(code dErrors.Code) string {
	switch code {
	case dErrors.CodeUnauthorized:
		return "denied"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeInvalidInput:
		return "invalid"
	case dErrors.CodeInvariantViolation:
		return "invariant"
	case dErrors.CodeUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}
