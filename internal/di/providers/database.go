package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/shelfkeeper/shelfkeeper-server/internal/config"
	"github.com/shelfkeeper/shelfkeeper-server/internal/logger"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.Dir, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	// First boot: persist the configured library settings so later edits
	// through the API survive restarts.
	seeded, err := db.SeedSettings(context.Background(), &cfg.Library)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if seeded {
		log.Info("Library settings seeded from configuration",
			"loan_days", cfg.Library.LoanDays,
			"guest_borrow", cfg.Library.GuestBorrow,
		)
	}

	return &StoreHandle{Store: db}, nil
}
