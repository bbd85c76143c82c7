package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

// Loans returns an entity accessor over the loan record prefix.
func (s *Store) Loans() *Entity[domain.LoanRecord] {
	return NewEntity[domain.LoanRecord](s, loanPrefix)
}

// AppendLoan stores a new loan record.
func (s *Store) AppendLoan(ctx context.Context, loan *domain.LoanRecord) error {
	return s.Loans().Create(ctx, loan.ID, loan)
}

// GetLoan retrieves a loan by its record ID.
func (s *Store) GetLoan(ctx context.Context, id string) (*domain.LoanRecord, error) {
	return s.Loans().Get(ctx, id)
}

// UpdateLoan overwrites an existing loan record.
func (s *Store) UpdateLoan(ctx context.Context, loan *domain.LoanRecord) error {
	return s.Loans().Update(ctx, loan.ID, loan)
}

// ReplaceLoans drops every stored loan and writes the given set in one
// transaction. Used when a pull adopts the remote's loan ledger.
func (s *Store) ReplaceLoans(ctx context.Context, loans []*domain.LoanRecord) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	payloads := make(map[string][]byte, len(loans))
	for _, loan := range loans {
		data, err := json.Marshal(loan)
		if err != nil {
			return fmt.Errorf("marshal loan %s: %w", loan.ID, err)
		}
		payloads[loan.ID] = data
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		prefix := []byte(loanPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete stale loan: %w", err)
			}
		}
		for id, data := range payloads {
			if err := txn.Set([]byte(loanPrefix+id), data); err != nil {
				return fmt.Errorf("write loan %s: %w", id, err)
			}
		}
		return nil
	})
}

// ListLoans returns all loan records ordered by borrow date, oldest first.
// Ties fall back to record ID so the order is stable across reads.
func (s *Store) ListLoans(ctx context.Context) ([]*domain.LoanRecord, error) {
	loans, err := s.Loans().List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(loans, func(i, j int) bool {
		if loans[i].BorrowDate.Equal(loans[j].BorrowDate) {
			return loans[i].ID < loans[j].ID
		}
		return loans[i].BorrowDate.Before(loans[j].BorrowDate)
	})
	return loans, nil
}

// OpenLoans returns loans that have not been returned, oldest first.
func (s *Store) OpenLoans(ctx context.Context) ([]*domain.LoanRecord, error) {
	loans, err := s.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	open := loans[:0]
	for _, loan := range loans {
		if loan.Open() {
			open = append(open, loan)
		}
	}
	return open, nil
}

// FindOpenLoan returns the open loan for a (book, user) pair, or nil.
func (s *Store) FindOpenLoan(ctx context.Context, bookID, userID string) (*domain.LoanRecord, error) {
	loans, err := s.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	for _, loan := range loans {
		if loan.Open() && loan.BookID == bookID && loan.UserID == userID {
			return loan, nil
		}
	}
	return nil, nil
}
