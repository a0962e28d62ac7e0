// Package middleware provides the HTTP middleware chain shared by all
// attestry endpoints: request identity, panic recovery, logging, timeouts,
// latency metrics, and bearer-token authentication.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"attestry/pkg/requestcontext"
)

// RequestIDHeader carries the request ID on responses and honors inbound
// IDs from trusted proxies.
const RequestIDHeader = "X-Request-Id"

// RequestID assigns every request a correlation ID, reusing an inbound one
// when present. The ID is stored in the context and echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
