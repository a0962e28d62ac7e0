package testutil

import (
	"net/http"

	"attestry/pkg/domain"
	"attestry/pkg/requestcontext"
)

// WithPrincipal adds an authenticated principal to the request context.
// This simulates what the auth middleware would do for authenticated
// requests. Invalid principals are silently ignored so tests can exercise
// the unauthenticated path by passing garbage.
func WithPrincipal(req *http.Request, principal string) *http.Request {
	if parsed, err := domain.ParsePrincipal(principal); err == nil {
		return req.WithContext(requestcontext.WithPrincipal(req.Context(), parsed))
	}
	return req
}

// WithAuth adds a principal and a token ID to the request context, the
// typical state of a request that passed the auth middleware.
func WithAuth(req *http.Request, principal, tokenID string) *http.Request {
	ctx := req.Context()
	if parsed, err := domain.ParsePrincipal(principal); err == nil {
		ctx = requestcontext.WithPrincipal(ctx, parsed)
	}
	if tokenID != "" {
		ctx = requestcontext.WithTokenID(ctx, tokenID)
	}
	return req.WithContext(ctx)
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
