// Package sync pushes and pulls the full library state to a remote sheet
// store. The remote is a dumb JSON endpoint: it persists whatever it is
// given and hands it back verbatim, so the server is always the authority.
package sync

import (
	"encoding/json"
	"time"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

// Envelope is the request body for every remote call.
type Envelope struct {
	Action  string   `json:"action"`
	Payload *Payload `json:"payload,omitempty"`
}

// Payload carries the three state sections the remote persists.
type Payload struct {
	Books         []WireBook      `json:"books"`
	BorrowedBooks []WireLoan      `json:"borrowedBooks"`
	BoyouBooks    json.RawMessage `json:"boyouBooks,omitempty"`
}

// PullResponse is the remote's answer to a pull. The state sections come
// back nested under data, mirroring the push payload.
type PullResponse struct {
	OK    bool     `json:"ok"`
	Error string   `json:"error,omitempty"`
	Data  *Payload `json:"data,omitempty"`
}

// PushResponse is the remote's answer to a push.
type PushResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// WireBook is the sheet-facing book row. Genre travels as its reader-facing
// label, and bookIds is omitted for titles with a single copy.
type WireBook struct {
	ID              string   `json:"id"`
	BookIDs         []string `json:"bookIds,omitempty"`
	Title           string   `json:"title"`
	Author          string   `json:"author,omitempty"`
	CoverURL        string   `json:"coverUrl,omitempty"`
	Genre           string   `json:"genre"`
	Year            int      `json:"year"`
	Copies          int      `json:"copies"`
	AvailableCopies int      `json:"availableCopies"`
}

// WireLoan is the sheet-facing loan row. Dates travel as RFC 3339 strings;
// returnedAt is empty while the loan is open.
type WireLoan struct {
	ID         string `json:"id"`
	BookID     string `json:"bookId"`
	BookTitle  string `json:"bookTitle"`
	UserID     string `json:"userId"`
	BorrowDate string `json:"borrowDate"`
	DueDate    string `json:"dueDate"`
	ReturnedAt string `json:"returnedAt,omitempty"`
}

func bookToWire(b *domain.Book) WireBook {
	w := WireBook{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		CoverURL:        b.CoverURL,
		Genre:           b.Genre.Display(),
		Year:            b.Year,
		Copies:          b.Copies,
		AvailableCopies: b.AvailableCopies,
	}
	if len(b.BookIDs) > 1 {
		w.BookIDs = b.BookIDs
	}
	return w
}

func bookFromWire(w WireBook) *domain.Book {
	b := &domain.Book{
		ID:              w.ID,
		BookIDs:         w.BookIDs,
		Title:           w.Title,
		Author:          w.Author,
		CoverURL:        w.CoverURL,
		Genre:           domain.GenreFromDisplay(w.Genre),
		Year:            w.Year,
		Copies:          w.Copies,
		AvailableCopies: w.AvailableCopies,
	}
	if len(b.BookIDs) == 0 && b.ID != "" {
		b.BookIDs = []string{b.ID}
	}
	return b
}

func loanToWire(r *domain.LoanRecord) WireLoan {
	w := WireLoan{
		ID:         r.ID,
		BookID:     r.BookID,
		BookTitle:  r.BookTitle,
		UserID:     r.UserID,
		BorrowDate: r.BorrowDate.Format(time.RFC3339),
		DueDate:    r.DueDate.Format(time.RFC3339),
	}
	if r.ReturnedAt != nil {
		w.ReturnedAt = r.ReturnedAt.Format(time.RFC3339)
	}
	return w
}

func loanFromWire(w WireLoan) (*domain.LoanRecord, error) {
	borrowDate, err := time.Parse(time.RFC3339, w.BorrowDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := time.Parse(time.RFC3339, w.DueDate)
	if err != nil {
		return nil, err
	}
	record := &domain.LoanRecord{
		ID:         w.ID,
		BookID:     w.BookID,
		BookTitle:  w.BookTitle,
		UserID:     w.UserID,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
	}
	if w.ReturnedAt != "" {
		returnedAt, err := time.Parse(time.RFC3339, w.ReturnedAt)
		if err != nil {
			return nil, err
		}
		record.ReturnedAt = &returnedAt
	}
	return record, nil
}
