package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/requestcontext"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
}

func TestRequestID_ReusesInboundID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "upstream-id", seen)
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	h := Recovery(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"INTERNAL"}`, rr.Body.String())
}

func TestTimeout_SetsDeadline(t *testing.T) {
	h := Timeout(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok := r.Context().Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 20*time.Millisecond)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestContentTypeJSON(t *testing.T) {
	h := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("accepts json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("rejects xml", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Content-Type", "text/xml")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	})

	t.Run("ignores GET", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Content-Type", "text/xml")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

type staticValidator struct {
	claims *TokenClaims
	err    error
}

func (v *staticValidator) ValidateToken(string) (*TokenClaims, error) {
	return v.claims, v.err
}

func testPrincipal(t *testing.T) domain.Principal {
	t.Helper()
	pub := make([]byte, 32)
	pub[0] = 7
	p, err := domain.PrincipalFromPublicKey(pub)
	require.NoError(t, err)
	return p
}

func TestRequireAuth(t *testing.T) {
	principal := testPrincipal(t)

	next := func(got *domain.Principal) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*got = requestcontext.Principal(r.Context())
		})
	}

	t.Run("missing header - 401", func(t *testing.T) {
		var got domain.Principal
		h := RequireAuth(&staticValidator{}, discard)(next(&got))

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.True(t, got.IsZero())
	})

	t.Run("invalid token - 401", func(t *testing.T) {
		var got domain.Principal
		v := &staticValidator{err: dErrors.New(dErrors.CodeUnauthorized, "invalid token")}
		h := RequireAuth(v, discard)(next(&got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.True(t, got.IsZero())
	})

	t.Run("valid token stores principal", func(t *testing.T) {
		var got domain.Principal
		v := &staticValidator{claims: &TokenClaims{Principal: principal, TokenID: "jti-1"}}
		h := RequireAuth(v, discard)(next(&got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, principal, got)
	})
}

func TestGetPrincipal_EmptyContext(t *testing.T) {
	assert.True(t, GetPrincipal(context.Background()).IsZero())
}
