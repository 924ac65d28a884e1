package cluster

import (
	"sync"

	"go.uber.org/zap"
)

// Store is the process-wide register of known Kafka cluster names.
//
// The host is the sole writer and always sends the complete set, so Replace
// is last-write-wins: no merging, no deduplication, no validation. State
// resets to empty on restart.
type Store struct {
	mu     sync.RWMutex
	names  []string
	logger *zap.Logger
}

// NewStore creates an empty cluster store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		logger: logger.With(zap.String("component", "cluster-store")),
	}
}

// Replace swaps the entire cluster list for names.
func (s *Store) Replace(names []string) {
	copied := make([]string, len(names))
	copy(copied, names)

	s.mu.Lock()
	s.names = copied
	s.mu.Unlock()

	s.logger.Debug("Kafka cluster list replaced", zap.Int("count", len(copied)))
}

// Names returns a copy of the current cluster list, in the order the host
// sent it. The list may be empty.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]string, len(s.names))
	copy(copied, s.names)
	return copied
}

// Count returns the number of known clusters.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.names)
}
