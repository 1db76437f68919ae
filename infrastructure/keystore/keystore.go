package keystore

import "sync"

// Entry is one room's locally held key material for the E2EE collaborator.
// The service treats the key as opaque bytes; it only guards the lifecycle.
type Entry struct {
	PrivateKey []byte
	IsCreator  bool
}

// Store is a process-scoped map from room ID to key material. It replaces a
// global singleton: construct one, inject it where lookup is needed, and
// delete entries when the room is destroyed or exited. Nothing in here
// mirrors membership state; that stays in the backing store only.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func New() *Store {
	return &Store{
		entries: make(map[string]Entry),
	}
}

func (s *Store) Insert(roomID string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[roomID] = entry
}

func (s *Store) Lookup(roomID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[roomID]
	return entry, ok
}

func (s *Store) Delete(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, roomID)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
