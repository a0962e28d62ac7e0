package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attestry/internal/platform/metrics"
	"attestry/internal/platform/middleware"
)

// RouterConfig carries everything the router needs to assemble the service
// surface.
type RouterConfig struct {
	Identity  *IdentityHandler
	Verifiers *VerifierHandler
	Documents *DocumentsHandler

	TokenValidator middleware.TokenValidator
	Logger         *slog.Logger
	Metrics        *metrics.Metrics

	// Gatherer backs GET /metrics; nil disables the endpoint. Passing the
	// default gatherer picks up package-level collectors too.
	Gatherer prometheus.Gatherer

	// RequestTimeout bounds every request; zero falls back to a default.
	RequestTimeout time.Duration
}

const defaultRequestTimeout = 30 * time.Second

// NewRouter assembles the full HTTP surface: ledger reads are public,
// mutations and document endpoints require a bearer token, and the JSON
// content type check stays off the multipart document routes.
func NewRouter(cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Latency(cfg.Metrics))

	r.Get("/healthz", handleHealthz)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// Public ledger reads.
	r.Group(func(pub chi.Router) {
		cfg.Identity.RegisterQueries(pub)
		cfg.Verifiers.RegisterQueries(pub)
	})

	// Authenticated JSON mutations.
	r.Group(func(priv chi.Router) {
		priv.Use(middleware.RequireAuth(cfg.TokenValidator, cfg.Logger))
		priv.Use(middleware.ContentTypeJSON)
		cfg.Identity.RegisterCommands(priv)
		cfg.Verifiers.RegisterCommands(priv)
	})

	// Authenticated multipart document endpoints.
	if cfg.Documents != nil {
		r.Group(func(docs chi.Router) {
			docs.Use(middleware.RequireAuth(cfg.TokenValidator, cfg.Logger))
			cfg.Documents.Register(docs)
		})
	}

	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
