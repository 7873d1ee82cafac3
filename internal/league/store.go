package league

import (
	"sync"

	"github.com/XavierBriggs/Pallas/pkg/models"
)

// Store holds the current fixture list for one competition. Each Set swaps
// in a fresh snapshot; readers get the snapshot that was current when they
// called Get and must treat it as read-only.
type Store struct {
	matches []models.Match
	mu      sync.RWMutex
}

// NewStore creates an empty fixture store
func NewStore() *Store {
	return &Store{matches: []models.Match{}}
}

// Set replaces the whole fixture list. The caller's slice is copied so later
// changes to it never leak into the store.
func (s *Store) Set(matches []models.Match) {
	snapshot := make([]models.Match, len(matches))
	copy(snapshot, matches)

	s.mu.Lock()
	s.matches = snapshot
	s.mu.Unlock()
}

// Get returns the current snapshot
func (s *Store) Get() []models.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matches
}

// Len returns the number of stored fixtures
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}
