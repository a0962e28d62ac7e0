package cas

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// AddressForBytes returns the CIDv1 (raw codec, sha2-256) of data. Every
// store implementation derives addresses with this function, which is what
// makes Put idempotent and Get verifiable.
func AddressForBytes(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("hash content: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// ParseAddress decodes a content address from external input.
//
// Errors: wraps ErrInvalidAddress when s is empty or not a valid CID.
func ParseAddress(s string) (cid.Cid, error) {
	if s == "" {
		return cid.Undef, fmt.Errorf("empty address: %w", ErrInvalidAddress)
	}
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, fmt.Errorf("decode %q: %w", s, ErrInvalidAddress)
	}
	return id, nil
}

// verifyAddress re-derives the address of data and checks it against id.
func verifyAddress(id cid.Cid, data []byte) error {
	got, err := AddressForBytes(data)
	if err != nil {
		return err
	}
	if got != id {
		return fmt.Errorf("got %s want %s: %w", got, id, ErrAddressMismatch)
	}
	return nil
}
