package cas

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
)

// Memory is an in-memory Store. It intentionally favors clarity over
// performance and is the default backend for tests and single-process runs.
type Memory struct {
	mu     sync.RWMutex
	blocks map[cid.Cid][]byte
}

func NewMemory() *Memory {
	return &Memory{blocks: make(map[cid.Cid][]byte)}
}

func (m *Memory) Put(_ context.Context, data []byte) (cid.Cid, error) {
	id, err := AddressForBytes(data)
	if err != nil {
		return cid.Undef, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blocks[id]; !ok {
		m.blocks[id] = append([]byte(nil), data...)
	}
	return id, nil
}

func (m *Memory) Get(_ context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidAddress
	}

	m.mu.RLock()
	data, ok := m.blocks[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Has(_ context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, ErrInvalidAddress
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blocks[id]
	return ok, nil
}

// Len reports the number of stored blocks. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blocks)
}

// Blobs returns a copy of every stored block. Test helper.
func (m *Memory) Blobs() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]byte, 0, len(m.blocks))
	for _, data := range m.blocks {
		out = append(out, append([]byte(nil), data...))
	}
	return out
}
