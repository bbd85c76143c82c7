package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	domainerrors "github.com/shelfkeeper/shelfkeeper-server/internal/errors"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
	syncclient "github.com/shelfkeeper/shelfkeeper-server/internal/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type loanEnv struct {
	store *store.Store
	loans *LoanService
}

func newLoanEnv(t *testing.T) *loanEnv {
	t.Helper()
	log := testLogger()

	st, err := store.New(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	syncSvc := NewSyncService(st, syncclient.NewClient("", log), log)
	loans := NewLoanService(st, syncSvc, &sync.Mutex{}, log)
	return &loanEnv{store: st, loans: loans}
}

func (e *loanEnv) seedBook(t *testing.T, id, title string, copies int) {
	t.Helper()
	require.NoError(t, e.store.AppendBooks(context.Background(), []*domain.Book{{
		ID:              id,
		BookIDs:         []string{id},
		Title:           title,
		Genre:           domain.GenreFromID(id),
		Year:            2023,
		Copies:          copies,
		AvailableCopies: copies,
	}}))
}

func studentSession(name string) *domain.Session {
	return &domain.Session{ID: "sess-" + name, Username: name, Role: domain.RoleStudent, LoginAt: time.Now()}
}

func TestBorrow_RequiresSession(t *testing.T) {
	env := newLoanEnv(t)
	_, err := env.loans.Borrow(context.Background(), nil, "A0001")
	assert.ErrorIs(t, err, domainerrors.ErrAuthRequired)
}

func TestBorrow_GuestDeniedBeforeBookLookup(t *testing.T) {
	// The role gate fires before the book is resolved, so even a missing
	// book yields a permission error for guests.
	env := newLoanEnv(t)
	guest := &domain.Session{ID: "sess-g", Username: "visitor", Role: domain.RoleGuest}

	_, err := env.loans.Borrow(context.Background(), guest, "Z9999")
	assert.ErrorIs(t, err, domainerrors.ErrPermissionDenied)
}

func TestBorrow_GuestAllowedWhenSettingsPermit(t *testing.T) {
	env := newLoanEnv(t)
	env.seedBook(t, "A0001", "小王子", 1)

	settings := domain.DefaultSettings()
	settings.GuestBorrow = true
	require.NoError(t, env.store.SaveSettings(context.Background(), &settings))

	guest := &domain.Session{ID: "sess-g", Username: "visitor", Role: domain.RoleGuest}
	loan, err := env.loans.Borrow(context.Background(), guest, "A0001")
	require.NoError(t, err)
	assert.Equal(t, "visitor", loan.UserID)
}

func TestBorrow_BookNotFound(t *testing.T) {
	env := newLoanEnv(t)
	_, err := env.loans.Borrow(context.Background(), studentSession("amy"), "A0404")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestBorrow_Exhausted(t *testing.T) {
	env := newLoanEnv(t)
	env.seedBook(t, "A0001", "小王子", 1)
	ctx := context.Background()

	_, err := env.loans.Borrow(ctx, studentSession("amy"), "A0001")
	require.NoError(t, err)

	_, err = env.loans.Borrow(ctx, studentSession("ben"), "A0001")
	assert.ErrorIs(t, err, domainerrors.ErrExhausted)
}

func TestBorrow_SameUserSameTitleRejected(t *testing.T) {
	env := newLoanEnv(t)
	env.seedBook(t, "A0001", "小王子", 3)
	ctx := context.Background()

	_, err := env.loans.Borrow(ctx, studentSession("amy"), "A0001")
	require.NoError(t, err)

	// Copies remain, but a second open loan on the same title by the same
	// user is refused.
	_, err = env.loans.Borrow(ctx, studentSession("amy"), "A0001")
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyBorrowed)

	// A different user still gets one.
	_, err = env.loans.Borrow(ctx, studentSession("ben"), "A0001")
	assert.NoError(t, err)
}

func TestBorrow_SetsDatesAndDecrements(t *testing.T) {
	env := newLoanEnv(t)
	env.seedBook(t, "A0001", "小王子", 2)
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	env.loans.now = func() time.Time { return now }

	loan, err := env.loans.Borrow(ctx, studentSession("amy"), "A0001")
	require.NoError(t, err)

	assert.Equal(t, now, loan.BorrowDate)
	assert.Equal(t, now.Add(14*24*time.Hour), loan.DueDate, "default loan period is 14 days")
	assert.Equal(t, "小王子", loan.BookTitle)
	assert.Nil(t, loan.ReturnedAt)

	book, err := env.store.GetBook(ctx, "A0001")
	require.NoError(t, err)
	assert.Equal(t, 1, book.AvailableCopies)
	assert.Equal(t, 2, book.Copies)
}

func TestBorrow_HonorsConfiguredLoanDays(t *testing.T) {
	env := newLoanEnv(t)
	env.seedBook(t, "A0001", "小王子", 1)
	ctx := context.Background()

	settings := domain.DefaultSettings()
	settings.LoanDays = 7
	require.NoError(t, env.store.SaveSettings(ctx, &settings))

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	env.loans.now = func() time.Time { return now }

	loan, err := env.loans.Borrow(ctx, studentSession("amy"), "A0001")
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), loan.DueDate)
}

func TestReturn_RequiresSession(t *testing.T) {
	env := newLoanEnv(t)
	_, err := env.loans.Return(context.Background(), nil, "loan-x")
	assert.ErrorIs(t, err, domainerrors.ErrAuthRequired)
}

func TestReturn_LoanNotFound(t *testing.T) {
	env := newLoanEnv(t)
	_, err := env.loans.Return(context.Background(), studentSession("amy"), "loan-x")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestReturn_ClosesLoanAndReleasesCopy(t *testing.T) {
	env := newLoanEnv(t)
	env.seedBook(t, "A0001", "小王子", 1)
	ctx := context.Background()
	session := studentSession("amy")

	loan, err := env.loans.Borrow(ctx, session, "A0001")
	require.NoError(t, err)

	returned, err := env.loans.Return(ctx, session, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedAt)

	book, err := env.store.GetBook(ctx, "A0001")
	require.NoError(t, err)
	assert.Equal(t, 1, book.AvailableCopies)

	// The title can be borrowed again.
	_, err = env.loans.Borrow(ctx, session, "A0001")
	assert.NoError(t, err)
}

func TestReturn_AlreadyReturned(t *testing.T) {
	env := newLoanEnv(t)
	env.seedBook(t, "A0001", "小王子", 1)
	ctx := context.Background()
	session := studentSession("amy")

	loan, err := env.loans.Borrow(ctx, session, "A0001")
	require.NoError(t, err)

	_, err = env.loans.Return(ctx, session, loan.ID)
	require.NoError(t, err)

	_, err = env.loans.Return(ctx, session, loan.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyReturned)
}

func TestReturn_AfterCatalogRebuildClampsAvailability(t *testing.T) {
	env := newLoanEnv(t)
	env.seedBook(t, "A0001", "小王子", 1)
	ctx := context.Background()
	session := studentSession("amy")

	loan, err := env.loans.Borrow(ctx, session, "A0001")
	require.NoError(t, err)

	// A re-ingestion rebuilt the catalog from scratch; the copy now reads
	// as available even though the loan is still open.
	require.NoError(t, env.store.ReplaceCatalog(ctx, []*domain.Book{{
		ID:              "A0001",
		BookIDs:         []string{"A0001"},
		Title:           "小王子",
		Genre:           domain.GenrePictureBook,
		Year:            2023,
		Copies:          1,
		AvailableCopies: 1,
	}}))

	_, err = env.loans.Return(ctx, session, loan.ID)
	require.NoError(t, err)

	book, err := env.store.GetBook(ctx, "A0001")
	require.NoError(t, err)
	assert.Equal(t, 1, book.AvailableCopies, "availability never exceeds total copies")
}

func TestReturn_BookGoneStillClosesLoan(t *testing.T) {
	env := newLoanEnv(t)
	env.seedBook(t, "A0001", "小王子", 1)
	ctx := context.Background()
	session := studentSession("amy")

	loan, err := env.loans.Borrow(ctx, session, "A0001")
	require.NoError(t, err)

	// The book vanished in a rebuild; the return still closes the loan.
	require.NoError(t, env.store.ReplaceCatalog(ctx, nil))

	returned, err := env.loans.Return(ctx, session, loan.ID)
	require.NoError(t, err)
	assert.NotNil(t, returned.ReturnedAt)
}

func TestListLoans_Visibility(t *testing.T) {
	env := newLoanEnv(t)
	env.seedBook(t, "A0001", "小王子", 2)
	env.seedBook(t, "B0001", "神奇樹屋", 1)
	ctx := context.Background()

	amy := studentSession("amy")
	ben := studentSession("ben")

	_, err := env.loans.Borrow(ctx, amy, "A0001")
	require.NoError(t, err)
	benLoan, err := env.loans.Borrow(ctx, ben, "B0001")
	require.NoError(t, err)

	// Students only see their own loans.
	mine, err := env.loans.List(ctx, amy, false)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "amy", mine[0].UserID)

	// Staff see everything.
	staff := &domain.Session{ID: "sess-s", Username: "teacher", Role: domain.RoleStaff}
	all, err := env.loans.List(ctx, staff, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// openOnly hides closed loans.
	_, err = env.loans.Return(ctx, ben, benLoan.ID)
	require.NoError(t, err)
	open, err := env.loans.List(ctx, staff, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "amy", open[0].UserID)

	_, err = env.loans.List(ctx, nil, false)
	assert.ErrorIs(t, err, domainerrors.ErrAuthRequired)
}

// TestBorrowReturn_AvailabilityBounds drives random borrow/return sequences
// and checks the shelf count never leaves [0, copies].
func TestBorrowReturn_AvailabilityBounds(t *testing.T) {
	env := newLoanEnv(t)
	ctx := context.Background()
	users := []string{"amy", "ben", "cho"}

	rapid.Check(t, func(rt *rapid.T) {
		copies := rapid.IntRange(1, 3).Draw(rt, "copies")
		require.NoError(rt, env.store.ReplaceLoans(ctx, nil))
		require.NoError(rt, env.store.ReplaceCatalog(ctx, []*domain.Book{{
			ID:              "A0001",
			BookIDs:         []string{"A0001"},
			Title:           "小王子",
			Genre:           domain.GenreFromID("A0001"),
			Year:            2023,
			Copies:          copies,
			AvailableCopies: copies,
		}}))

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for range steps {
			sess := studentSession(rapid.SampledFrom(users).Draw(rt, "user"))

			if rapid.Bool().Draw(rt, "borrow") {
				if _, err := env.loans.Borrow(ctx, sess, "A0001"); err != nil {
					ok := domainerrors.Is(err, domainerrors.ErrExhausted) ||
						domainerrors.Is(err, domainerrors.ErrAlreadyBorrowed)
					require.True(rt, ok, "unexpected borrow failure: %v", err)
				}
			} else {
				open, err := env.loans.List(ctx, sess, true)
				require.NoError(rt, err)
				if len(open) > 0 {
					_, err = env.loans.Return(ctx, sess, open[0].ID)
					require.NoError(rt, err)
				}
			}

			book, err := env.store.GetBook(ctx, "A0001")
			require.NoError(rt, err)
			require.GreaterOrEqual(rt, book.AvailableCopies, 0)
			require.LessOrEqual(rt, book.AvailableCopies, book.Copies)
		}
	})
}
