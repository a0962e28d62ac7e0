package ledger

import (
	"context"
	"sync"

	"attestry/pkg/domain"
)

// MemoryStore is an in-memory Store for tests and local development. It
// intentionally favors clarity over performance.
//
// Each identity record carries its own mutex, so transitions on
// different subjects proceed concurrently while transitions on the same
// subject serialize. The verifier set and the event log have separate
// locks; verifier mutations append their event inside the same critical
// section.
type MemoryStore struct {
	mu      sync.Mutex
	records map[domain.Principal]*recordEntry

	verifierMu sync.RWMutex
	verifiers  map[domain.Principal]struct{}
	order      []domain.Principal

	eventMu sync.RWMutex
	events  []Event
}

type recordEntry struct {
	mu  sync.Mutex
	rec Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[domain.Principal]*recordEntry),
		verifiers: make(map[domain.Principal]struct{}),
	}
}

// UpdateIdentity implements Store.
func (s *MemoryStore) UpdateIdentity(_ context.Context, subject domain.Principal, fn UpdateFunc) (Record, error) {
	entry := s.entry(subject)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	next, events, err := fn(copyRecord(entry.rec))
	if err != nil {
		return Record{}, err
	}
	entry.rec = copyRecord(next)

	if len(events) > 0 {
		s.eventMu.Lock()
		s.events = append(s.events, events...)
		s.eventMu.Unlock()
	}
	return copyRecord(entry.rec), nil
}

// GetIdentity implements Store. Reading an unknown subject does not
// allocate a record for it.
func (s *MemoryStore) GetIdentity(_ context.Context, subject domain.Principal) (Record, error) {
	s.mu.Lock()
	entry, ok := s.records[subject]
	s.mu.Unlock()
	if !ok {
		return NotRegisteredRecord(subject), nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return copyRecord(entry.rec), nil
}

// AddVerifier implements Store.
func (s *MemoryStore) AddVerifier(_ context.Context, member domain.Principal, event Event) error {
	s.verifierMu.Lock()
	defer s.verifierMu.Unlock()

	if _, ok := s.verifiers[member]; ok {
		return ErrAlreadyMember
	}
	s.verifiers[member] = struct{}{}
	s.order = append(s.order, member)

	s.eventMu.Lock()
	s.events = append(s.events, event)
	s.eventMu.Unlock()
	return nil
}

// RemoveVerifier implements Store.
func (s *MemoryStore) RemoveVerifier(_ context.Context, member domain.Principal, event Event) error {
	s.verifierMu.Lock()
	defer s.verifierMu.Unlock()

	if _, ok := s.verifiers[member]; !ok {
		return ErrNotMember
	}
	delete(s.verifiers, member)
	for i, p := range s.order {
		if p == member {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.eventMu.Lock()
	s.events = append(s.events, event)
	s.eventMu.Unlock()
	return nil
}

// IsVerifier implements Store.
func (s *MemoryStore) IsVerifier(_ context.Context, member domain.Principal) (bool, error) {
	s.verifierMu.RLock()
	defer s.verifierMu.RUnlock()
	_, ok := s.verifiers[member]
	return ok, nil
}

// ListVerifiers implements Store. Members are returned in insertion
// order.
func (s *MemoryStore) ListVerifiers(_ context.Context) ([]domain.Principal, error) {
	s.verifierMu.RLock()
	defer s.verifierMu.RUnlock()
	return append([]domain.Principal(nil), s.order...), nil
}

// ListEvents implements Store.
func (s *MemoryStore) ListEvents(_ context.Context, principal domain.Principal, kind EventKind) ([]Event, error) {
	s.eventMu.RLock()
	defer s.eventMu.RUnlock()

	var out []Event
	for _, ev := range s.events {
		if ev.Actor != principal && ev.Subject != principal {
			continue
		}
		if kind != "" && ev.Kind != kind {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// entry returns the record entry for subject, creating the
// not-registered seed under the map lock on first use.
func (s *MemoryStore) entry(subject domain.Principal) *recordEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.records[subject]
	if !ok {
		entry = &recordEntry{rec: NotRegisteredRecord(subject)}
		s.records[subject] = entry
	}
	return entry
}

func copyRecord(rec Record) Record {
	out := rec
	if rec.ActingVerifiers != nil {
		out.ActingVerifiers = append([]domain.Principal(nil), rec.ActingVerifiers...)
	}
	return out
}
