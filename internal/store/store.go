// Package store persists the catalog, loan ledger, settings, and active
// session in a local Badger database. It replaces the browser-local storage
// the system grew out of, with the same snapshot-on-every-mutation model.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes and singleton keys.
const (
	bookPrefix   = "book:"
	loanPrefix   = "loan:"
	orderKey     = "catalog:order"
	settingsKey  = "meta:settings"
	sessionKey   = "meta:session"
	archiveKey   = "meta:archive"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New creates a new Store instance at the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Every mutation is a durability point
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("database opened", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("closing database")
	}
	return s.db.Close()
}

// getJSON reads and unmarshals a single key. Returns ErrNotFound when absent.
func getJSON[T any](s *Store, key string) (*T, error) {
	var out T
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// setJSON marshals and writes a single key.
func setJSON(s *Store, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// deleteKey removes a single key; deleting an absent key is not an error.
func deleteKey(s *Store, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// checkCtx returns the context's error, so every exported operation observes
// cancellation before touching the database.
func checkCtx(ctx context.Context) error {
	return ctx.Err()
}
