package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

// ReplaceCatalog drops every stored book and writes the new catalog in a
// single transaction, preserving the given order. No reader ever observes a
// partially rebuilt catalog.
func (s *Store) ReplaceCatalog(ctx context.Context, books []*domain.Book) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	order := make([]string, 0, len(books))
	payloads := make(map[string][]byte, len(books))
	for _, book := range books {
		data, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("marshal book %s: %w", book.ID, err)
		}
		order = append(order, book.ID)
		payloads[book.ID] = data
	}
	orderData, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal catalog order: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		// Collect existing book keys first; Badger forbids deleting under
		// an open iterator.
		var stale [][]byte
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		prefix := []byte(bookPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete stale book: %w", err)
			}
		}
		for id, data := range payloads {
			if err := txn.Set([]byte(bookPrefix+id), data); err != nil {
				return fmt.Errorf("write book %s: %w", id, err)
			}
		}
		return txn.Set([]byte(orderKey), orderData)
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("catalog replaced", "books", len(books))
	}
	return nil
}

// ListBooks returns the catalog in its first-seen ingestion order.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	order, err := getJSON[[]string](s, orderKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	books := make([]*domain.Book, 0, len(*order))
	for _, id := range *order {
		book, err := getJSON[domain.Book](s, bookPrefix+id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Order entry without a book record; skip rather than fail the read.
				continue
			}
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// GetBook retrieves one book by its primary catalog ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	return getJSON[domain.Book](s, bookPrefix+id)
}

// UpdateBook overwrites an existing book. Returns ErrNotFound if absent.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshal book %s: %w", book.ID, err)
	}
	key := []byte(bookPrefix + book.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Set(key, data)
	})
}

// AppendBooks adds new books to the end of the catalog order.
// Returns ErrAlreadyExists if any primary ID is already present.
func (s *Store) AppendBooks(ctx context.Context, books []*domain.Book) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var order []string
		item, err := txn.Get([]byte(orderKey))
		if err == nil {
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &order)
			}); err != nil {
				return fmt.Errorf("read catalog order: %w", err)
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		for _, book := range books {
			key := []byte(bookPrefix + book.ID)
			if _, err := txn.Get(key); err == nil {
				return fmt.Errorf("book %s: %w", book.ID, ErrAlreadyExists)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			data, err := json.Marshal(book)
			if err != nil {
				return fmt.Errorf("marshal book %s: %w", book.ID, err)
			}
			if err := txn.Set(key, data); err != nil {
				return err
			}
			order = append(order, book.ID)
		}

		orderData, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("marshal catalog order: %w", err)
		}
		return txn.Set([]byte(orderKey), orderData)
	})
}
