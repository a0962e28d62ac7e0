package ledger

import (
	"context"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// Membership sentinels are pre-coded so services can surface them without
// translation.
var (
	ErrAlreadyMember = dErrors.New(dErrors.CodeInvalidInput, "principal is already a verifier")
	ErrNotMember     = dErrors.New(dErrors.CodeInvalidInput, "principal is not a verifier")
)

// UpdateFunc computes a record transition. It receives the most recently
// committed record (or the NotRegistered sentinel) and returns the updated
// record plus the events describing the transition. Returning an error
// aborts the update with no effect, and the error reaches the caller
// unchanged.
type UpdateFunc func(current Record) (Record, []Event, error)

// Store persists identity records, the verifier set, and the event log.
//
// Contract:
//   - UpdateIdentity serializes updates per subject: concurrent calls for
//     the same subject apply one after the other, and each fn sees the
//     previous call's committed effects. The returned record and events are
//     committed atomically.
//   - AddVerifier/RemoveVerifier are atomic check-and-set operations; they
//     fail with ErrAlreadyMember/ErrNotMember without effect, and commit
//     the membership change together with event.
//   - Infrastructure failures carry CodeUnavailable.
//
// Stores are interface-driven so the transition rules can be exercised
// against in-memory state in tests and against postgres in deployments.
type Store interface {
	UpdateIdentity(ctx context.Context, subject domain.Principal, fn UpdateFunc) (Record, error)
	GetIdentity(ctx context.Context, subject domain.Principal) (Record, error)

	AddVerifier(ctx context.Context, member domain.Principal, event Event) error
	RemoveVerifier(ctx context.Context, member domain.Principal, event Event) error
	IsVerifier(ctx context.Context, member domain.Principal) (bool, error)
	ListVerifiers(ctx context.Context) ([]domain.Principal, error)

	// ListEvents returns events whose actor or subject equals principal,
	// oldest first. An empty kind matches all kinds.
	ListEvents(ctx context.Context, principal domain.Principal, kind EventKind) ([]Event, error)
}
