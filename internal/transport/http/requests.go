package httptransport

import (
	"strings"

	"attestry/internal/cas"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// RegisterIdentityRequest is the HTTP request body for POST /identity/register.
type RegisterIdentityRequest struct {
	ContentAddress string `json:"content_address"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterIdentityRequest) Validate() error {
	r.ContentAddress = strings.TrimSpace(r.ContentAddress)
	if r.ContentAddress == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "content_address is required")
	}
	if _, err := cas.ParseAddress(r.ContentAddress); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "content_address is not a valid content address")
	}
	return nil
}

// AddVerifierRequest is the HTTP request body for POST /verifiers.
type AddVerifierRequest struct {
	Principal string `json:"principal"`

	// Parsed values (populated by Validate)
	parsedPrincipal domain.Principal
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *AddVerifierRequest) Validate() error {
	r.Principal = strings.TrimSpace(r.Principal)
	if r.Principal == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "principal is required")
	}
	principal, err := domain.ParsePrincipal(r.Principal)
	if err != nil {
		return err
	}
	r.parsedPrincipal = principal
	return nil
}

// ParsedPrincipal returns the validated principal.
func (r *AddVerifierRequest) ParsedPrincipal() domain.Principal {
	return r.parsedPrincipal
}
