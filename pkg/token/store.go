package token

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrCacheMiss indicates no credential is stored for the principal
	ErrCacheMiss = errors.New("credential cache miss")

	// ErrInvalidEntry indicates the stored credential is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid credential entry")
)

// Store persists one entry per principal for the lifetime of the process.
// Get returns ErrCacheMiss when nothing is stored.
type Store interface {
	Get(ctx context.Context, principal string) (*Entry, error)
	Put(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, principal string) error
}

// MemoryStore keeps entries in a mutex-guarded map.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

// Get returns a copy of the entry stored for principal.
func (s *MemoryStore) Get(_ context.Context, principal string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[NormalizePrincipal(principal)]
	if !ok {
		return nil, ErrCacheMiss
	}
	entry.Scopes = append([]Scope(nil), entry.Scopes...)
	return &entry, nil
}

// Put replaces the entry for the entry's principal.
func (s *MemoryStore) Put(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	stored.Scopes = append([]Scope(nil), entry.Scopes...)
	s.entries[NormalizePrincipal(entry.PrincipalKey)] = stored
	return nil
}

// Delete removes the entry for principal. Deleting a missing entry is not an error.
func (s *MemoryStore) Delete(_ context.Context, principal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, NormalizePrincipal(principal))
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
