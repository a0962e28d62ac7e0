package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"attestry/pkg/platform/httputil"
	"attestry/pkg/requestcontext"
)

// VerifierHandler wires trusted verifier set management to the ledger
// service. Mutations are owner-only; the service enforces that.
type VerifierHandler struct {
	ledger LedgerService
	logger *slog.Logger
}

// NewVerifierHandler constructs a verifier handler with its dependencies.
func NewVerifierHandler(ledger LedgerService, logger *slog.Logger) *VerifierHandler {
	return &VerifierHandler{
		ledger: ledger,
		logger: logger,
	}
}

// RegisterCommands mounts the mutation endpoints. The router places these
// behind the auth middleware.
func (h *VerifierHandler) RegisterCommands(r chi.Router) {
	r.Post("/verifiers", h.HandleAddVerifier)
	r.Delete("/verifiers/{principal}", h.HandleRemoveVerifier)
}

// RegisterQueries mounts the read endpoints.
func (h *VerifierHandler) RegisterQueries(r chi.Router) {
	r.Get("/verifiers", h.HandleListVerifiers)
}

// HandleAddVerifier handles POST /verifiers requests.
func (h *VerifierHandler) HandleAddVerifier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	caller, ok := authenticatedPrincipal(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddVerifierRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	target := req.ParsedPrincipal()

	if err := h.ledger.AddVerifier(ctx, caller, target); err != nil {
		logServiceError(ctx, h.logger, "verifier grant failed", err,
			"request_id", requestID,
			"caller", caller,
			"verifier", target,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verifier granted",
		"request_id", requestID,
		"caller", caller,
		"verifier", target,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveVerifier handles DELETE /verifiers/{principal} requests.
func (h *VerifierHandler) HandleRemoveVerifier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	caller, ok := authenticatedPrincipal(w, ctx)
	if !ok {
		return
	}

	target, ok := principalParam(w, r)
	if !ok {
		return
	}

	if err := h.ledger.RemoveVerifier(ctx, caller, target); err != nil {
		logServiceError(ctx, h.logger, "verifier revocation failed", err,
			"request_id", requestID,
			"caller", caller,
			"verifier", target,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verifier revoked",
		"request_id", requestID,
		"caller", caller,
		"verifier", target,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	w.WriteHeader(http.StatusNoContent)
}

// HandleListVerifiers handles GET /verifiers requests.
func (h *VerifierHandler) HandleListVerifiers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	verifiers, err := h.ledger.Verifiers(ctx)
	if err != nil {
		logServiceError(ctx, h.logger, "verifier list failed", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromPrincipals(principalStrings(verifiers)))
}
