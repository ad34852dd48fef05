// Package memory is an in-process SnapshotWriter used for local
// development and tests.
package memory

import (
	"context"
	"sync"

	"expenses/internal/core"
)

type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	matched      []int
	writes       int
}

func New() *Store {
	return &Store{}
}

// WriteSnapshot keeps an independent copy of the given state.
func (s *Store) WriteSnapshot(_ context.Context, transactions []core.Transaction, matched []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]core.Transaction(nil), transactions...)
	s.matched = append([]int(nil), matched...)
	s.writes++
	return nil
}

// Snapshot returns copies of the last written state.
func (s *Store) Snapshot() ([]core.Transaction, []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...),
		append([]int(nil), s.matched...)
}

// Writes returns how many snapshots have been written.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
