package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic CRUD operations for a keyed domain type.
type Entity[T any] struct {
	store  *Store
	prefix string
}

// NewEntity creates a new Entity instance for type T under the given key prefix.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// Create creates a new entity with the given ID.
// Returns ErrAlreadyExists if an entity with this ID already exists.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	key := []byte(e.prefix + id)
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Get retrieves an entity by ID. Returns ErrNotFound if absent.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	return getJSON[T](e.store, e.prefix+id)
}

// Update overwrites an existing entity. Returns ErrNotFound if absent.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	key := []byte(e.prefix + id)
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to check existing key: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Delete removes an entity by ID. Deleting an absent entity is not an error.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return deleteKey(e.store, e.prefix+id)
}

// List returns every entity under the prefix in key order.
func (e *Entity[T]) List(ctx context.Context) ([]*T, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	var out []*T
	err := e.store.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(e.prefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entity T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entity)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal entity: %w", err)
			}
			out = append(out, &entity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of entities under the prefix.
func (e *Entity[T]) Count(ctx context.Context) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}

	count := 0
	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(e.prefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
