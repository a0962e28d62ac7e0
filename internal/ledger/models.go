// Package ledger is the authoritative record of identity status: which
// principal registered what content, the verifier set, and the transition
// rules between lifecycle states. Stores provide per-record serialization;
// this package provides the precondition checks evaluated inside it.
package ledger

import (
	"time"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// Status is an identity's lifecycle state.
//
// NotRegistered -> Pending -> Verified | Rejected. Verified and Rejected are
// terminal. Every principal that never registered is NotRegistered
// implicitly; no record is pre-created.
type Status string

const (
	StatusNotRegistered Status = "not_registered"
	StatusPending       Status = "pending"
	StatusVerified      Status = "verified"
	StatusRejected      Status = "rejected"
)

// Terminal reports whether no further transition is possible from s.
// Rejection is terminal on purpose: a rejected principal has no
// re-registration path. Treat loosening that as a product decision, not a
// code change.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// ParseStatus validates external status input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNotRegistered, StatusPending, StatusVerified, StatusRejected:
		return Status(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
}

// Record is one principal's identity entry.
//
// Invariants:
//   - ContentAddress is non-empty exactly when Status != NotRegistered, and
//     immutable once set.
//   - ActingVerifiers is append-only and non-empty only when Status ==
//     Verified; a rejection never appends.
type Record struct {
	Owner           domain.Principal
	ContentAddress  string
	RegisteredAt    time.Time
	Status          Status
	ActingVerifiers []domain.Principal
}

// NotRegisteredRecord is the sentinel returned for principals with no entry.
func NotRegisteredRecord(subject domain.Principal) Record {
	return Record{Owner: subject, Status: StatusNotRegistered}
}
