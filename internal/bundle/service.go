// Package bundle turns raw documents into a sealed, content-addressed
// bundle: each document is sealed to the recipient and stored individually,
// then a manifest referencing all document addresses is sealed and stored,
// and the manifest's address is what callers hand to the ledger.
package bundle

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"attestry/internal/cas"
	"attestry/internal/envelope"
	dErrors "attestry/pkg/domain-errors"
)

var (
	bundleDocuments = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "attestry_bundle_documents",
		Help:    "Documents per stored bundle",
		Buckets: []float64{1, 2, 5, 10, 25, 50},
	})
	validateOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attestry_bundle_validate_total",
		Help: "Bundle validations by outcome",
	}, []string{"outcome"})
)

const defaultConcurrency = 4

// Service orchestrates the envelope cipher and the content store.
type Service struct {
	store       cas.Store
	logger      *slog.Logger
	concurrency int
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency bounds how many documents are sealed and stored in
// parallel within one StoreDocuments call.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock overrides the manifest timestamp source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a bundle Service backed by store.
func NewService(store cas.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		logger:      logger,
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// StoreDocuments seals every document to recipient, stores each one, then
// seals and stores a manifest referencing them all. It returns the manifest
// address.
//
// All-or-nothing with respect to the manifest: if any document fails to seal
// or store, no manifest is published and the error is propagated with its
// original code. Document blobs already stored by a failed attempt may
// remain, unreferenced, in the content store.
//
// Documents are processed concurrently; order in the manifest matches the
// caller's order. Cancelling ctx aborts the remaining work before any
// manifest is published.
func (s *Service) StoreDocuments(ctx context.Context, documents [][]byte, recipient envelope.PublicKey) (cid.Cid, error) {
	ctx, span := otel.Tracer("attestry/bundle").Start(ctx, "bundle.store_documents")
	defer span.End()
	span.SetAttributes(attribute.Int("bundle.documents", len(documents)))

	if len(documents) == 0 {
		return cid.Undef, dErrors.New(dErrors.CodeInvalidInput, "at least one document is required")
	}
	for i, doc := range documents {
		if len(doc) == 0 {
			return cid.Undef, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("document %d is empty", i))
		}
	}

	addrs := make([]string, len(documents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, doc := range documents {
		g.Go(func() error {
			sealed, err := envelope.Seal(doc, recipient)
			if err != nil {
				return fmt.Errorf("seal document %d: %w", i, err)
			}
			id, err := s.store.Put(gctx, sealed)
			if err != nil {
				return fmt.Errorf("store document %d: %w", i, err)
			}
			addrs[i] = id.String()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return cid.Undef, err
	}

	manifest := NewManifest(addrs, s.now())
	encoded, err := manifest.Encode()
	if err != nil {
		span.RecordError(err)
		return cid.Undef, err
	}
	sealed, err := envelope.Seal(encoded, recipient)
	if err != nil {
		span.RecordError(err)
		return cid.Undef, fmt.Errorf("seal manifest: %w", err)
	}
	manifestAddr, err := s.store.Put(ctx, sealed)
	if err != nil {
		span.RecordError(err)
		return cid.Undef, fmt.Errorf("store manifest: %w", err)
	}

	bundleDocuments.Observe(float64(len(documents)))
	s.logger.InfoContext(ctx, "stored document bundle",
		"manifest_address", manifestAddr.String(),
		"documents", len(documents),
	)
	return manifestAddr, nil
}

// FetchAndValidate retrieves the manifest at manifestAddress, opens it with
// key, retrieves and opens the first referenced document, and reports
// whether its digest equals the digest of reference.
//
// It is a predicate, not an action: every retrieval, decryption or decoding
// failure means validation could not be established and yields false, never
// an error. Failures are logged at warn level for operators.
func (s *Service) FetchAndValidate(ctx context.Context, manifestAddress string, key envelope.PrivateKey, reference []byte) bool {
	ctx, span := otel.Tracer("attestry/bundle").Start(ctx, "bundle.fetch_and_validate")
	defer span.End()

	ok := s.fetchAndCompare(ctx, manifestAddress, key, reference)
	if ok {
		validateOutcomes.WithLabelValues("match").Inc()
	} else {
		validateOutcomes.WithLabelValues("mismatch").Inc()
	}
	span.SetAttributes(attribute.Bool("bundle.valid", ok))
	return ok
}

func (s *Service) fetchAndCompare(ctx context.Context, manifestAddress string, key envelope.PrivateKey, reference []byte) bool {
	fail := func(stage string, err error) bool {
		s.logger.WarnContext(ctx, "bundle validation not established",
			"manifest_address", manifestAddress,
			"stage", stage,
			"error", err.Error(),
		)
		return false
	}

	addr, err := cas.ParseAddress(manifestAddress)
	if err != nil {
		return fail("parse_address", err)
	}
	sealedManifest, err := s.store.Get(ctx, addr)
	if err != nil {
		return fail("fetch_manifest", err)
	}
	encoded, err := envelope.Open(sealedManifest, key)
	if err != nil {
		return fail("open_manifest", err)
	}
	manifest, err := DecodeManifest(encoded)
	if err != nil {
		return fail("decode_manifest", err)
	}
	if len(manifest.DocumentAddresses) == 0 {
		return fail("empty_manifest", dErrors.New(dErrors.CodeInvalidInput, "manifest references no documents"))
	}

	docAddr, err := cas.ParseAddress(manifest.DocumentAddresses[0])
	if err != nil {
		return fail("parse_document_address", err)
	}
	sealedDoc, err := s.store.Get(ctx, docAddr)
	if err != nil {
		return fail("fetch_document", err)
	}
	plaintext, err := envelope.Open(sealedDoc, key)
	if err != nil {
		return fail("open_document", err)
	}

	return digestEqual(plaintext, reference)
}

// digestEqual compares SHA-256 digests of both sides. Ciphertexts are
// non-deterministic, so equality is only meaningful over plaintext digests.
func digestEqual(a, b []byte) bool {
	da := sha256.Sum256(a)
	db := sha256.Sum256(b)
	return bytes.Equal(da[:], db[:])
}
