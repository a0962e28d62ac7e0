package cas

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	dErrors "attestry/pkg/domain-errors"
)

// LocalFS is a filesystem-backed Store. Objects are written once under their
// address and never rewritten; a two-character shard directory keeps any
// single directory from growing unboundedly.
type LocalFS struct {
	root string
}

// NewLocalFS constructs a store rooted at root, creating the directory if
// needed.
func NewLocalFS(root string) (*LocalFS, error) {
	if root == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "localfs root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create localfs root")
	}
	return &LocalFS{root: root}, nil
}

func (s *LocalFS) Put(_ context.Context, data []byte) (cid.Cid, error) {
	id, err := AddressForBytes(data)
	if err != nil {
		return cid.Undef, err
	}

	path := s.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, dErrors.Wrap(err, dErrors.CodeUnavailable, "create shard directory")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			// Idempotent re-put, as long as the existing bytes still match.
			existing, rerr := os.ReadFile(path)
			if rerr != nil || !bytes.Equal(existing, data) {
				return cid.Undef, fmt.Errorf("existing object differs at %s: %w", id, ErrAddressMismatch)
			}
			return id, nil
		}
		return cid.Undef, dErrors.Wrap(err, dErrors.CodeUnavailable, "create object file")
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, dErrors.Wrap(err, dErrors.CodeUnavailable, "write object")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, dErrors.Wrap(err, dErrors.CodeUnavailable, "sync object")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return cid.Undef, dErrors.Wrap(err, dErrors.CodeUnavailable, "close object")
	}
	return id, nil
}

func (s *LocalFS) Get(_ context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidAddress
	}

	data, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read object")
	}
	if err := verifyAddress(id, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *LocalFS) Has(_ context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, ErrInvalidAddress
	}

	_, err := os.Stat(s.pathFor(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "stat object")
}

func (s *LocalFS) pathFor(id cid.Cid) string {
	name := id.String()
	if len(name) < 2 {
		return filepath.Join(s.root, name)
	}
	return filepath.Join(s.root, name[:2], name)
}
