// Command server runs the attestry HTTP service: the identity ledger API
// and the encrypted document endpoints. Everything is wired here; business
// logic lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"attestry/internal/bundle"
	"attestry/internal/cas"
	"attestry/internal/cas/casgrpc"
	"attestry/internal/envelope"
	"attestry/internal/events"
	"attestry/internal/jwttoken"
	"attestry/internal/ledger"
	ledgermetrics "attestry/internal/ledger/metrics"
	"attestry/internal/platform/config"
	"attestry/internal/platform/httpserver"
	"attestry/internal/platform/logger"
	"attestry/internal/platform/metrics"
	platformredis "attestry/internal/platform/redis"
	httptransport "attestry/internal/transport/http"
	"attestry/pkg/domain"
	"attestry/pkg/platform/circuit"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	owner, err := domain.ParsePrincipal(cfg.Keys.OwnerPrincipal)
	if err != nil {
		return fmt.Errorf("ATTESTRY_OWNER_PRINCIPAL: %w", err)
	}

	store, closeStore, err := newCASStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	ledgerStore, closeLedger, err := newLedgerStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	httpMetrics := metrics.New(prometheus.DefaultRegisterer)
	ledgerMetrics := ledgermetrics.New(prometheus.DefaultRegisterer)

	var ledgerOpts []ledger.Option
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		ensureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := publisher.EnsureTopic(ensureCtx, 3, 1); err != nil {
			log.Warn("event topic check failed, continuing", "topic", cfg.Kafka.Topic, "error", err.Error())
		}
		cancel()
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := publisher.Close(closeCtx); err != nil {
				log.Warn("event publisher drain failed", "error", err.Error())
			}
		}()
		ledgerOpts = append(ledgerOpts, ledger.WithEventSink(publisher))
		log.Info("ledger event stream enabled", "topic", cfg.Kafka.Topic, "brokers", len(cfg.Kafka.Brokers))
	}

	ledgerService := ledger.NewService(ledgerStore, owner, log, ledgerMetrics, ledgerOpts...)
	bundleService := bundle.NewService(store, log)

	tokens := jwttoken.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)

	documents, err := newDocumentsHandler(cfg, bundleService, log)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Identity:       httptransport.NewIdentityHandler(ledgerService, log),
		Verifiers:      httptransport.NewVerifierHandler(ledgerService, log),
		Documents:      documents,
		TokenValidator: jwttoken.NewServiceAdapter(tokens),
		Logger:         log,
		Metrics:        httpMetrics,
		Gatherer:       prometheus.DefaultGatherer,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("attestry listening",
			"addr", cfg.Server.Addr,
			"cas_backend", cfg.CAS.Backend,
			"owner", owner,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// newCASStore builds the content store stack: the configured backend,
// wrapped by a circuit breaker when it crosses the network, wrapped by the
// Redis read-through cache when one is configured.
func newCASStore(ctx context.Context, cfg config.Config, log *slog.Logger) (cas.Store, func(), error) {
	var (
		store     cas.Store
		networked bool
		closers   []func()
	)

	switch cfg.CAS.Backend {
	case "memory":
		store = cas.NewMemory()
	case "localfs":
		fs, err := cas.NewLocalFS(cfg.CAS.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("localfs store: %w", err)
		}
		store = fs
	case "ipfs":
		ipfs, err := cas.NewIPFS(cfg.CAS.IPFSAPIAddr, &http.Client{Timeout: cfg.CAS.RequestTimeout})
		if err != nil {
			return nil, nil, fmt.Errorf("ipfs store: %w", err)
		}
		store = ipfs
		networked = true
	case "grpc":
		if cfg.CAS.GRPCAddr == "" {
			return nil, nil, fmt.Errorf("ATTESTRY_CAS_GRPC_ADDR is required for the grpc backend")
		}
		cc, err := grpc.NewClient(cfg.CAS.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, fmt.Errorf("grpc store: %w", err)
		}
		client := casgrpc.NewClient(cc)
		closers = append(closers, func() { _ = client.Close() })
		store = client
		networked = true
	default:
		return nil, nil, fmt.Errorf("unknown CAS backend %q", cfg.CAS.Backend)
	}

	if networked {
		breaker := circuit.New("cas-" + cfg.CAS.Backend)
		store = cas.NewGuarded(store, breaker, log)
	}

	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	if rdb != nil {
		closers = append(closers, func() { _ = rdb.Close() })
		store = cas.NewCached(store, rdb.Client, cfg.Redis.CacheTTL, log)
		log.Info("content cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return store, closeAll, nil
}

// newLedgerStore selects the persistent ledger store when a DSN is
// configured and the in-memory store otherwise.
func newLedgerStore(ctx context.Context, cfg config.Config) (ledger.Store, func(), error) {
	if cfg.Postgres.DSN == "" {
		return ledger.NewMemoryStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	return ledger.NewPostgresStore(db), func() { _ = db.Close() }, nil
}

// newDocumentsHandler builds the document endpoints when recipient key
// material is configured; without a public key the service runs as a pure
// ledger node.
func newDocumentsHandler(cfg config.Config, bundles *bundle.Service, log *slog.Logger) (*httptransport.DocumentsHandler, error) {
	if cfg.Keys.RecipientPublicKey == "" {
		log.Warn("no recipient public key configured, document endpoints disabled")
		return nil, nil
	}
	recipient, err := envelope.ParsePublicKey(cfg.Keys.RecipientPublicKey)
	if err != nil {
		return nil, fmt.Errorf("ATTESTRY_RECIPIENT_PUBLIC_KEY: %w", err)
	}

	var openKey *envelope.PrivateKey
	if cfg.Keys.RecipientPrivateKey != "" {
		key, err := envelope.ParsePrivateKey(cfg.Keys.RecipientPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("ATTESTRY_RECIPIENT_PRIVATE_KEY: %w", err)
		}
		openKey = &key
	}

	return httptransport.NewDocumentsHandler(bundles, recipient, openKey, log), nil
}
