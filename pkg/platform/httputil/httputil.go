// Package httputil centralizes JSON response writing and request decoding
// for HTTP handlers so every endpoint speaks the same envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "attestry/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies before decoding. Attestry's JSON
// payloads are small; document uploads go through multipart, not here.
const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON error envelope returned by every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the error envelope. Domain errors map
// through their code; anything unclassified becomes an internal error.
// Internal and invariant errors omit the description so backend details
// never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: string(dErrors.CodeInternal)}
	status := http.StatusInternalServerError

	var derr *dErrors.Error
	if errors.As(err, &derr) {
		resp.Error = string(derr.Code)
		status = dErrors.ToHTTPStatus(derr.Code)
		if derr.Code != dErrors.CodeInternal && derr.Code != dErrors.CodeInvariantViolation {
			resp.ErrorDescription = derr.Message
		}
	}

	WriteJSON(w, status, resp)
}

// Validatable is implemented by request types that validate and parse
// themselves after decoding.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes the request body into T and runs its validation.
// On failure it writes the error response and returns ok=false; handlers
// just return. Request-shape failures are logged at warn with the request
// ID so operators can correlate them.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, requestID string) (*T, bool) {
	req := PT(new(T))

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(req); err != nil {
		logger.WarnContext(r.Context(), "invalid request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return nil, false
	}

	if err := req.Validate(); err != nil {
		logger.WarnContext(r.Context(), "request validation failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		WriteError(w, err)
		return nil, false
	}

	return req, true
}
