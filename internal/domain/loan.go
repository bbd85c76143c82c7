package domain

import "time"

// LoanRecord is one borrow event. It stays open until a return closes it
// and is never deleted; closed loans form the borrow history.
type LoanRecord struct {
	ID     string `json:"id"`
	BookID string `json:"bookId"`
	// BookTitle is a denormalized snapshot taken at borrow time, so history
	// survives catalog rebuilds.
	BookTitle  string     `json:"bookTitle"`
	UserID     string     `json:"userId"`
	BorrowDate time.Time  `json:"borrowDate"`
	DueDate    time.Time  `json:"dueDate"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`
}

// Open reports whether the loan has not been returned yet.
func (r *LoanRecord) Open() bool {
	return r.ReturnedAt == nil
}

// Overdue reports whether an open loan is past its due date at the given time.
func (r *LoanRecord) Overdue(now time.Time) bool {
	return r.Open() && now.After(r.DueDate)
}
