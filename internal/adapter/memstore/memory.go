package memstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"clusterform/internal/domain"
	"clusterform/internal/port"
)

// MemoryStore is a process-local ValueStore, used by the browser build
// and when state persistence is disabled.
type MemoryStore struct {
	mu           sync.RWMutex
	values       domain.RawValues
	history      []domain.HistoryEntry
	historyLimit int
}

var _ port.ValueStore = (*MemoryStore)(nil)

func NewMemoryStore(historyLimit int) *MemoryStore {
	return &MemoryStore{
		values:       make(domain.RawValues),
		historyLimit: historyLimit,
	}
}

func (s *MemoryStore) SaveValues(values domain.RawValues) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

func (s *MemoryStore) LoadValues() (domain.RawValues, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(domain.RawValues, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) AppendHistory(entry domain.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.Must(uuid.NewV7()).String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
	if s.historyLimit > 0 && len(s.history) > s.historyLimit {
		s.history = s.history[len(s.history)-s.historyLimit:]
	}
	return nil
}

func (s *MemoryStore) ListHistory(limit int) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.HistoryEntry, 0, n)
	for i := len(s.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.history[i])
	}
	return out, nil
}

func (s *MemoryStore) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
