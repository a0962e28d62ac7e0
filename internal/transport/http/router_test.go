package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"attestry/internal/ledger"
	"attestry/internal/platform/metrics"
	"attestry/internal/platform/middleware"
	"attestry/internal/transport/http/mocks"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/testutil"
)

// staticValidator accepts a single bearer token and maps it to a principal.
type staticValidator struct {
	token     string
	principal domain.Principal
}

func (v staticValidator) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	if tokenString != v.token {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return &middleware.TokenClaims{Principal: v.principal, TokenID: "jti-1"}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockLedgerService, staticValidator) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	validator := staticValidator{token: "good-token", principal: testPrincipal(t, 0x02)}
	registry := prometheus.NewRegistry()

	router := NewRouter(RouterConfig{
		Identity:       NewIdentityHandler(mockLedger, logger),
		Verifiers:      NewVerifierHandler(mockLedger, logger),
		TokenValidator: validator,
		Logger:         logger,
		Metrics:        metrics.New(registry),
		Gatherer:       registry,
	})
	return router, mockLedger, validator
}

func TestRouter_Healthz(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	router, mockLedger, _ := newTestRouter(t)
	subject := testPrincipal(t, 0x05)
	mockLedger.EXPECT().Identity(gomock.Any(), subject).
		Return(ledger.NotRegisteredRecord(subject), nil)

	// One observed request so the latency histogram has a sample.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/identity/"+subject.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "attestry_http_request_duration_seconds")
}

func TestRouter_PublicReadsSkipAuth(t *testing.T) {
	router, mockLedger, _ := newTestRouter(t)

	mockLedger.EXPECT().Verifiers(gomock.Any()).Return(nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verifiers", nil))

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_MutationsRequireToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/identity/register", map[string]string{
		"content_address": testAddress(t, "docs"),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	testutil.AssertErrorCode(t, w, "UNAUTHORIZED")
}

func TestRouter_BearerTokenReachesHandler(t *testing.T) {
	router, mockLedger, validator := newTestRouter(t)
	addr := testAddress(t, "docs")

	mockLedger.EXPECT().RegisterIdentity(gomock.Any(), validator.principal, addr).
		Return(ledger.Record{
			Owner:          validator.principal,
			ContentAddress: addr,
			Status:         ledger.StatusPending,
		}, nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/identity/register", map[string]string{
		"content_address": addr,
	})
	req.Header.Set("Authorization", "Bearer good-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRouter_RejectsWrongContentType(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/identity/register", strings.NewReader("plain text"))
	req.Header.Set("Authorization", "Bearer good-token")
	req.Header.Set("Content-Type", "text/plain")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code, w.Body.String())
}

func TestRouter_RequestIDHeaderEchoed(t *testing.T) {
	router, mockLedger, _ := newTestRouter(t)

	mockLedger.EXPECT().Verifiers(gomock.Any()).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/verifiers", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_UnknownRouteIs404(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
