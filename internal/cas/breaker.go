package cas

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ipfs/go-cid"

	"attestry/pkg/platform/circuit"
)

// defaultProbeInterval is how often an open circuit lets one call through
// to test whether the backend recovered.
const defaultProbeInterval = 5 * time.Second

// Guarded wraps a networked Store with a circuit breaker. While the circuit
// is open, calls fail fast with ErrUnavailable instead of waiting out
// another timeout against a dead backend; one probe call per interval still
// reaches the inner store so recovery is noticed and the circuit can close.
//
// Only transport faults trip the breaker. NotFound and invalid-address
// results are semantic answers from a healthy store and count as successes.
type Guarded struct {
	inner   Store
	breaker *circuit.Breaker
	logger  *slog.Logger

	mu            sync.Mutex
	lastProbe     time.Time
	probeInterval time.Duration
}

// NewGuarded wraps inner with breaker. Meant for the ipfs and grpc
// backends; local stores never need it.
func NewGuarded(inner Store, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{
		inner:         inner,
		breaker:       breaker,
		logger:        logger,
		probeInterval: defaultProbeInterval,
	}
}

func (g *Guarded) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if !g.allow() {
		return cid.Undef, ErrUnavailable
	}
	id, err := g.inner.Put(ctx, data)
	g.record(ctx, err)
	if err != nil {
		return cid.Undef, err
	}
	return id, nil
}

func (g *Guarded) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !g.allow() {
		return nil, ErrUnavailable
	}
	data, err := g.inner.Get(ctx, id)
	g.record(ctx, err)
	return data, err
}

func (g *Guarded) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !g.allow() {
		return false, ErrUnavailable
	}
	ok, err := g.inner.Has(ctx, id)
	g.record(ctx, err)
	return ok, err
}

// allow reports whether this call may reach the inner store: always when
// closed, once per probe interval when open.
func (g *Guarded) allow() bool {
	if !g.breaker.IsOpen() {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if time.Since(g.lastProbe) >= g.probeInterval {
		g.lastProbe = time.Now()
		return true
	}
	return false
}

func (g *Guarded) record(ctx context.Context, err error) {
	if err != nil && IsUnavailable(err) {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "content store circuit opened",
				"store", g.breaker.Name(),
			)
		}
		return
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "content store circuit closed",
			"store", g.breaker.Name(),
		)
	}
}
