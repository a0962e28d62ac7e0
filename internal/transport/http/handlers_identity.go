// Package httptransport is the HTTP surface of attestry. Handlers decode and
// validate request shapes, then delegate to the ledger and bundle services;
// all authorization and lifecycle decisions stay in the services.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"attestry/internal/ledger"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/httputil"
	"attestry/pkg/requestcontext"
)

// LedgerService defines the interface for identity ledger operations.
type LedgerService interface {
	RegisterIdentity(ctx context.Context, caller domain.Principal, contentAddress string) (ledger.Record, error)
	VerifyIdentity(ctx context.Context, caller, target domain.Principal) (ledger.Record, error)
	RejectIdentity(ctx context.Context, caller, target domain.Principal) (ledger.Record, error)
	AddVerifier(ctx context.Context, caller, target domain.Principal) error
	RemoveVerifier(ctx context.Context, caller, target domain.Principal) error
	Identity(ctx context.Context, target domain.Principal) (ledger.Record, error)
	Verifiers(ctx context.Context) ([]domain.Principal, error)
	VerifiersOf(ctx context.Context, target domain.Principal) ([]domain.Principal, error)
	EventsBy(ctx context.Context, principal domain.Principal, kind ledger.EventKind) ([]ledger.Event, error)
}

// IdentityHandler wires identity lifecycle endpoints to the ledger service.
type IdentityHandler struct {
	ledger LedgerService
	logger *slog.Logger
}

// NewIdentityHandler constructs an identity handler with its dependencies.
func NewIdentityHandler(ledger LedgerService, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{
		ledger: ledger,
		logger: logger,
	}
}

// RegisterCommands mounts the mutation endpoints. The router places these
// behind the auth middleware.
func (h *IdentityHandler) RegisterCommands(r chi.Router) {
	r.Post("/identity/register", h.HandleRegister)
	r.Post("/identity/{principal}/verify", h.HandleVerify)
	r.Post("/identity/{principal}/reject", h.HandleReject)
}

// RegisterQueries mounts the read endpoints. Ledger state is public, so the
// router mounts these without auth.
func (h *IdentityHandler) RegisterQueries(r chi.Router) {
	r.Get("/identity/{principal}", h.HandleGetIdentity)
	r.Get("/identity/{principal}/verifiers", h.HandleGetActingVerifiers)
	r.Get("/identity/{principal}/events", h.HandleGetEvents)
}

// HandleRegister handles POST /identity/register requests. The caller
// registers their own identity; the subject is always the authenticated
// principal.
func (h *IdentityHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	caller, ok := authenticatedPrincipal(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterIdentityRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	rec, err := h.ledger.RegisterIdentity(ctx, caller, req.ContentAddress)
	if err != nil {
		logServiceError(ctx, h.logger, "identity registration failed", err,
			"request_id", requestID,
			"principal", caller,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity registered",
		"request_id", requestID,
		"principal", caller,
		"content_address", rec.ContentAddress,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

// HandleVerify handles POST /identity/{principal}/verify requests.
func (h *IdentityHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "verify")
}

// HandleReject handles POST /identity/{principal}/reject requests.
func (h *IdentityHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "reject")
}

// decide is the shared body of the verify and reject endpoints, which differ
// only in the service call and the terminal state it produces.
func (h *IdentityHandler) decide(w http.ResponseWriter, r *http.Request, op string) {
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

	var rec ledger.Record
	var err error
	if op == "verify" {
		rec, err = h.ledger.VerifyIdentity(ctx, caller, target)
	} else {
		rec, err = h.ledger.RejectIdentity(ctx, caller, target)
	}
	if err != nil {
		logServiceError(ctx, h.logger, "identity decision failed", err,
			"request_id", requestID,
			"verifier", caller,
			"subject", target,
			"decision", op,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity decision recorded",
		"request_id", requestID,
		"verifier", caller,
		"subject", target,
		"status", rec.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleGetIdentity handles GET /identity/{principal} requests. Unregistered
// principals are reported as status not_registered rather than 404: absence
// of a record is a modeled state, not a missing resource.
func (h *IdentityHandler) HandleGetIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	target, ok := principalParam(w, r)
	if !ok {
		return
	}

	rec, err := h.ledger.Identity(ctx, target)
	if err != nil {
		logServiceError(ctx, h.logger, "identity lookup failed", err,
			"request_id", requestID,
			"subject", target,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleGetActingVerifiers handles GET /identity/{principal}/verifiers
// requests.
func (h *IdentityHandler) HandleGetActingVerifiers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	target, ok := principalParam(w, r)
	if !ok {
		return
	}

	verifiers, err := h.ledger.VerifiersOf(ctx, target)
	if err != nil {
		logServiceError(ctx, h.logger, "acting verifier lookup failed", err,
			"request_id", requestID,
			"subject", target,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromPrincipals(principalStrings(verifiers)))
}

// HandleGetEvents handles GET /identity/{principal}/events requests. The
// optional kind query parameter filters the log; empty means all kinds.
func (h *IdentityHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	target, ok := principalParam(w, r)
	if !ok {
		return
	}

	kind, err := ledger.ParseEventKind(r.URL.Query().Get("kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.ledger.EventsBy(ctx, target, kind)
	if err != nil {
		logServiceError(ctx, h.logger, "event log query failed", err,
			"request_id", requestID,
			"subject", target,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

// authenticatedPrincipal pulls the caller set by the auth middleware from
// the context, writing the error response when it is missing.
func authenticatedPrincipal(w http.ResponseWriter, ctx context.Context) (domain.Principal, bool) {
	caller := requestcontext.Principal(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return caller, true
}

// principalParam parses the {principal} URL parameter, writing the error
// response on failure.
func principalParam(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, err := domain.ParsePrincipal(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return p, true
}

// principalStrings renders principals for a response body.
func principalStrings(principals []domain.Principal) []string {
	out := make([]string, 0, len(principals))
	for _, p := range principals {
		out = append(out, p.String())
	}
	return out
}

// logServiceError logs caller-caused failures at warn and everything else at
// error. Rejected transitions and permission misses are normal ledger
// behavior, not operator signals.
func logServiceError(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err.Error())
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUnauthorized, dErrors.CodeConflict, dErrors.CodeInvalidInput, dErrors.CodeNotFound:
		logger.WarnContext(ctx, msg, attrs...)
	default:
		logger.ErrorContext(ctx, msg, attrs...)
	}
}
