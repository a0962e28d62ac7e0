// Package cas defines the content-addressed store contract used for
// encrypted document blobs and manifests, plus the address profile all
// implementations share: CIDv1, raw codec, sha2-256.
package cas

import (
	"context"

	"github.com/ipfs/go-cid"
)

// Store is a minimal content-addressed store.
//
// Contract:
//   - Put MUST be idempotent: re-putting identical bytes succeeds and yields
//     the same address.
//   - Stored objects MUST be immutable; the address is derived from the
//     bytes written.
//   - Get MUST fail with CodeNotFound when the address is absent and with
//     CodeUnavailable on transport failure; callers bound both with the
//     context deadline.
//   - Get MUST NOT return bytes that do not hash to the requested address.
//
// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory, file-based, or networked persistence without rewiring
// business code.
type Store interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Has(ctx context.Context, id cid.Cid) (bool, error)
}
