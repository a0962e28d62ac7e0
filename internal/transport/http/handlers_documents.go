package httptransport

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ipfs/go-cid"

	"attestry/internal/cas"
	"attestry/internal/envelope"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/httputil"
	"attestry/pkg/requestcontext"
)

// Multipart field names for the document endpoints.
const (
	documentsField       = "documents"
	referenceField       = "reference"
	manifestAddressField = "manifest_address"
)

// Upload bounds. Callers batching more than maxDocumentCount files should
// split the batch; the manifest format itself has no limit.
const (
	maxUploadBytes   = 32 << 20
	maxDocumentBytes = 8 << 20
	maxDocumentCount = 50
)

// BundleService defines the interface for encrypted document operations.
type BundleService interface {
	StoreDocuments(ctx context.Context, documents [][]byte, recipient envelope.PublicKey) (cid.Cid, error)
	FetchAndValidate(ctx context.Context, manifestAddress string, key envelope.PrivateKey, reference []byte) bool
}

// DocumentsHandler wires the encrypted document endpoints to the bundle
// service. It holds the service's key material: uploads are sealed to the
// recipient public key, validation opens with the private key.
type DocumentsHandler struct {
	bundles   BundleService
	recipient envelope.PublicKey
	openKey   *envelope.PrivateKey
	logger    *slog.Logger
}

// NewDocumentsHandler constructs a documents handler. openKey may be nil
// when this deployment only accepts uploads; validation then reports the
// store unavailable.
func NewDocumentsHandler(bundles BundleService, recipient envelope.PublicKey, openKey *envelope.PrivateKey, logger *slog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		bundles:   bundles,
		recipient: recipient,
		openKey:   openKey,
		logger:    logger,
	}
}

// Register mounts the document endpoints. Both are multipart, so the router
// keeps them outside the JSON content type middleware.
func (h *DocumentsHandler) Register(r chi.Router) {
	r.Post("/documents", h.HandleStoreDocuments)
	r.Post("/documents/validate", h.HandleValidateDocument)
}

// HandleStoreDocuments handles POST /documents requests. The body is a
// multipart form whose "documents" parts are stored as one encrypted bundle;
// the response carries the manifest address that retrieves it.
func (h *DocumentsHandler) HandleStoreDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	caller, ok := authenticatedPrincipal(w, ctx)
	if !ok {
		return
	}

	documents, ok := h.readDocuments(w, r, requestID)
	if !ok {
		return
	}

	manifestAddr, err := h.bundles.StoreDocuments(ctx, documents, h.recipient)
	if err != nil {
		logServiceError(ctx, h.logger, "document upload failed", err,
			"request_id", requestID,
			"principal", caller,
			"documents", len(documents),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "documents stored",
		"request_id", requestID,
		"principal", caller,
		"documents", len(documents),
		"manifest_address", manifestAddr.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, StoreDocumentsResponse{
		ManifestAddress: manifestAddr.String(),
		DocumentCount:   len(documents),
	})
}

// HandleValidateDocument handles POST /documents/validate requests. The
// multipart form carries a manifest_address value and a "reference" file;
// the response reports whether the stored bundle contains a document equal
// to the reference. The check is strictly boolean so callers cannot probe
// why a mismatch happened.
func (h *DocumentsHandler) HandleValidateDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	caller, ok := authenticatedPrincipal(w, ctx)
	if !ok {
		return
	}

	if h.openKey == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "validation key not configured"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.logger.WarnContext(ctx, "invalid multipart request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid multipart request body"))
		return
	}
	defer cleanupMultipart(r)

	manifestAddress := strings.TrimSpace(r.FormValue(manifestAddressField))
	if manifestAddress == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "manifest_address is required"))
		return
	}
	if _, err := cas.ParseAddress(manifestAddress); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "manifest_address is not a valid content address"))
		return
	}

	reference, ok := h.readReference(w, r, requestID)
	if !ok {
		return
	}

	valid := h.bundles.FetchAndValidate(ctx, manifestAddress, *h.openKey, reference)

	h.logger.InfoContext(ctx, "document validated",
		"request_id", requestID,
		"principal", caller,
		"manifest_address", manifestAddress,
		"valid", valid,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, ValidateDocumentResponse{Valid: valid})
}

// readDocuments parses the multipart form and collects the document parts in
// form order, writing the error response on failure.
func (h *DocumentsHandler) readDocuments(w http.ResponseWriter, r *http.Request, requestID string) ([][]byte, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.logger.WarnContext(r.Context(), "invalid multipart request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid multipart request body"))
		return nil, false
	}
	defer cleanupMultipart(r)

	files := r.MultipartForm.File[documentsField]
	if len(files) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "at least one document part is required"))
		return nil, false
	}
	if len(files) > maxDocumentCount {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "too many document parts"))
		return nil, false
	}

	documents := make([][]byte, 0, len(files))
	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			httputil.WriteError(w, err)
			return nil, false
		}
		documents = append(documents, data)
	}
	return documents, true
}

// readReference extracts the single reference part, writing the error
// response on failure.
func (h *DocumentsHandler) readReference(w http.ResponseWriter, r *http.Request, requestID string) ([]byte, bool) {
	files := r.MultipartForm.File[referenceField]
	if len(files) != 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "exactly one reference part is required"))
		return nil, false
	}
	data, err := readPart(files[0])
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return data, true
}

// readPart reads one multipart file within the per-document size bound.
func readPart(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxDocumentBytes {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "document exceeds size limit")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unreadable document part")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unreadable document part")
	}
	if len(data) > maxDocumentBytes {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "document exceeds size limit")
	}
	return data, nil
}

// cleanupMultipart drops any temp files the multipart parser spilled to disk.
func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
