package ledger

import (
	"time"

	"github.com/google/uuid"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// EventKind tags entries in the append-only event log.
type EventKind string

const (
	EventVerifierAdded      EventKind = "verifier_added"
	EventVerifierRemoved    EventKind = "verifier_removed"
	EventIdentityRegistered EventKind = "identity_registered"
	EventIdentityVerified   EventKind = "identity_verified"
	EventIdentityRejected   EventKind = "identity_rejected"
)

// ParseEventKind validates external kind input. The empty string is allowed
// and means "all kinds" in queries.
func ParseEventKind(s string) (EventKind, error) {
	switch EventKind(s) {
	case "", EventVerifierAdded, EventVerifierRemoved,
		EventIdentityRegistered, EventIdentityVerified, EventIdentityRejected:
		return EventKind(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid event kind")
	}
}

// Event is one entry in the ledger's event log. Events are written in the
// same transaction as the transition they describe, so the log never
// disagrees with the records.
type Event struct {
	ID             uuid.UUID
	Kind           EventKind
	Actor          domain.Principal
	Subject        domain.Principal
	ContentAddress string
	Timestamp      time.Time
}
