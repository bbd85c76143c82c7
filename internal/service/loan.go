package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	domainerrors "github.com/shelfkeeper/shelfkeeper-server/internal/errors"
	"github.com/shelfkeeper/shelfkeeper-server/internal/id"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
)

// LoanService runs the borrow/return state machine over the catalog.
type LoanService struct {
	store  *store.Store
	sync   *SyncService
	logger *slog.Logger

	// mu is the same mutex CatalogService holds during rebuilds.
	mu *sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// NewLoanService creates a new loan service.
func NewLoanService(store *store.Store, syncSvc *SyncService, mu *sync.Mutex, logger *slog.Logger) *LoanService {
	return &LoanService{
		store:  store,
		sync:   syncSvc,
		logger: logger,
		mu:     mu,
		now:    time.Now,
	}
}

// Borrow checks out one copy of the book for the session's user.
// Preconditions are checked in a fixed order: a session must exist, the
// role must be allowed to borrow, the book must exist, a copy must be
// available, and the user must not already hold this title open.
func (s *LoanService) Borrow(ctx context.Context, session *domain.Session, bookID string) (*domain.LoanRecord, error) {
	if session == nil {
		return nil, domainerrors.AuthRequired("login required to borrow")
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if !session.CanBorrow(*settings) {
		return nil, domainerrors.PermissionDenied("guests may not borrow books")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("book %s not found", bookID)
		}
		return nil, err
	}
	if book.AvailableCopies <= 0 {
		return nil, domainerrors.Exhausted("no copies available")
	}

	open, err := s.store.FindOpenLoan(ctx, bookID, session.Username)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, domainerrors.AlreadyBorrowed("this title is already borrowed by you")
	}

	now := s.now()
	loan := &domain.LoanRecord{
		ID:         id.MustGenerate("loan"),
		BookID:     book.ID,
		BookTitle:  book.Title,
		UserID:     session.Username,
		BorrowDate: now,
		DueDate:    now.Add(settings.LoanPeriod()),
	}

	book.AvailableCopies--
	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}
	if err := s.store.AppendLoan(ctx, loan); err != nil {
		// Put the copy back so the catalog and ledger stay consistent.
		book.AvailableCopies++
		if restoreErr := s.store.UpdateBook(ctx, book); restoreErr != nil {
			s.logger.Error("failed to restore availability after loan write failure",
				"book_id", book.ID,
				"error", restoreErr,
			)
		}
		return nil, err
	}

	s.logger.Info("book borrowed",
		"loan_id", loan.ID,
		"book_id", book.ID,
		"user", session.Username,
		"due", loan.DueDate,
	)

	s.sync.PushBestEffort(ctx)
	return loan, nil
}

// Return closes an open loan and releases its copy. The copy count is
// clamped so a return after a catalog rebuild never exceeds the total.
func (s *LoanService) Return(ctx context.Context, session *domain.Session, loanID string) (*domain.LoanRecord, error) {
	if session == nil {
		return nil, domainerrors.AuthRequired("login required to return")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("loan %s not found", loanID)
		}
		return nil, err
	}
	if !loan.Open() {
		return nil, domainerrors.AlreadyReturned("this loan is already returned")
	}

	now := s.now()
	loan.ReturnedAt = &now
	if err := s.store.UpdateLoan(ctx, loan); err != nil {
		return nil, err
	}

	// The book may be gone after a catalog rebuild; the loan still closes.
	book, err := s.store.GetBook(ctx, loan.BookID)
	if err == nil {
		if book.AvailableCopies < book.Copies {
			book.AvailableCopies++
		}
		if err := s.store.UpdateBook(ctx, book); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	s.logger.Info("book returned",
		"loan_id", loan.ID,
		"book_id", loan.BookID,
		"user", loan.UserID,
	)

	s.sync.PushBestEffort(ctx)
	return loan, nil
}

// List returns loans visible to the session: staff see every loan, other
// roles only their own. Set openOnly to exclude returned loans.
func (s *LoanService) List(ctx context.Context, session *domain.Session, openOnly bool) ([]*domain.LoanRecord, error) {
	if session == nil {
		return nil, domainerrors.AuthRequired("login required to list loans")
	}

	loans, err := s.store.ListLoans(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.LoanRecord, 0, len(loans))
	for _, loan := range loans {
		if openOnly && !loan.Open() {
			continue
		}
		if !session.SeesAllLoans() && loan.UserID != session.Username {
			continue
		}
		out = append(out, loan)
	}
	return out, nil
}
