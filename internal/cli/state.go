package cli

import (
	"fmt"

	"clusterform/internal/adapter/cache"
	"clusterform/internal/adapter/store"
	"clusterform/internal/domain"
)

// openState opens the state database and brings its schema up to date
// for m. It returns nil when state is disabled.
func openState(m *domain.Model) (*store.BoltStore, error) {
	if !cfg.State.Enabled {
		return nil, nil
	}

	if err := cfg.EnsureStateDir(rootDir); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	dbPath := cfg.StateDBPath(rootDir)
	st, err := store.NewBoltStore(dbPath, cfg.State.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	if m == nil {
		return st, nil
	}

	fingerprint := cache.Fingerprint(m.FeatureSpace)
	migration, err := st.CheckMigration(fingerprint)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to check migration: %w", err)
	}

	switch {
	case migration.NeedsReset:
		logger.Warn("resetting state", "reason", migration.Reason)
		if err := st.Clear(); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to clear state: %w", err)
		}
	case migration.NeedsMigration:
		logger.Info("running schema migration", "reason", migration.Reason)
	case migration.ModelChanged:
		logger.Info("model feature space changed, saved values may not apply")
	}

	if err := st.Migrate(fingerprint); err != nil {
		st.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return st, nil
}
