package httptransport

import (
	"time"

	"attestry/internal/ledger"
)

// IdentityResponse is the HTTP representation of a ledger record.
type IdentityResponse struct {
	Principal       string     `json:"principal"`
	Status          string     `json:"status"`
	ContentAddress  string     `json:"content_address,omitempty"`
	RegisteredAt    *time.Time `json:"registered_at,omitempty"`
	ActingVerifiers []string   `json:"acting_verifiers"`
}

// FromRecord converts a ledger record to an HTTP response. The sentinel
// record for unregistered principals has no registration time, so the field
// is a pointer and omitted when unset.
func FromRecord(rec ledger.Record) IdentityResponse {
	verifiers := make([]string, 0, len(rec.ActingVerifiers))
	for _, v := range rec.ActingVerifiers {
		verifiers = append(verifiers, v.String())
	}
	resp := IdentityResponse{
		Principal:       rec.Owner.String(),
		Status:          string(rec.Status),
		ContentAddress:  rec.ContentAddress,
		ActingVerifiers: verifiers,
	}
	if !rec.RegisteredAt.IsZero() {
		registeredAt := rec.RegisteredAt
		resp.RegisteredAt = &registeredAt
	}
	return resp
}

// VerifiersResponse lists principals, either the trusted verifier set or the
// verifiers that acted on one identity.
type VerifiersResponse struct {
	Verifiers []string `json:"verifiers"`
}

// FromPrincipals converts a principal list to an HTTP response.
func FromPrincipals(principals []string) VerifiersResponse {
	if principals == nil {
		principals = []string{}
	}
	return VerifiersResponse{Verifiers: principals}
}

// EventResponse is the HTTP representation of one event log entry.
type EventResponse struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Actor          string    `json:"actor"`
	Subject        string    `json:"subject"`
	ContentAddress string    `json:"content_address,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// EventsResponse is the HTTP response for the event log query.
type EventsResponse struct {
	Events []EventResponse `json:"events"`
}

// FromEvents converts ledger events to an HTTP response.
func FromEvents(events []ledger.Event) EventsResponse {
	out := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, EventResponse{
			ID:             ev.ID.String(),
			Kind:           string(ev.Kind),
			Actor:          ev.Actor.String(),
			Subject:        ev.Subject.String(),
			ContentAddress: ev.ContentAddress,
			Timestamp:      ev.Timestamp,
		})
	}
	return EventsResponse{Events: out}
}

// StoreDocumentsResponse is the HTTP response for POST /documents.
type StoreDocumentsResponse struct {
	ManifestAddress string `json:"manifest_address"`
	DocumentCount   int    `json:"document_count"`
}

// ValidateDocumentResponse is the HTTP response for POST /documents/validate.
type ValidateDocumentResponse struct {
	Valid bool `json:"valid"`
}
