package port

import "clusterform/internal/domain"

// ValueStore persists the last raw values entered and a classification
// history. It is an alternate source of raw input, nothing more.
type ValueStore interface {
	// SaveValues merges values into the stored set, keyed by feature name.
	SaveValues(values domain.RawValues) error

	// LoadValues returns every stored value.
	LoadValues() (domain.RawValues, error)

	AppendHistory(entry domain.HistoryEntry) error

	// ListHistory returns the newest entries first, at most limit (0 = all).
	ListHistory(limit int) ([]domain.HistoryEntry, error)

	ClearHistory() error

	Close() error
}
