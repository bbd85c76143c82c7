package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

func (s *Server) registerLoanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "borrowBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/loans/borrow",
		Summary:     "Borrow a book",
		Description: "Checks out one copy for the current session's user",
		Tags:        []string{"Loans"},
	}, s.handleBorrowBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "returnBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/loans/{id}/return",
		Summary:     "Return a book",
		Description: "Closes an open loan and releases its copy",
		Tags:        []string{"Loans"},
	}, s.handleReturnBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listLoans",
		Method:      http.MethodGet,
		Path:        "/api/v1/loans",
		Summary:     "List loans",
		Description: "Staff see every loan, other roles only their own",
		Tags:        []string{"Loans"},
	}, s.handleListLoans)
}

// === DTOs ===

// BorrowRequest is the request body for borrowing a book.
type BorrowRequest struct {
	BookID string `json:"bookId" validate:"required,bookid" doc:"Primary catalog ID of the title"`
}

// BorrowInput wraps the borrow request for Huma.
type BorrowInput struct {
	Body BorrowRequest
}

// LoanResponse contains loan data in API responses.
type LoanResponse struct {
	ID         string     `json:"id" doc:"Loan record ID"`
	BookID     string     `json:"bookId" doc:"Primary catalog ID of the borrowed title"`
	BookTitle  string     `json:"bookTitle" doc:"Title at borrow time"`
	UserID     string     `json:"userId" doc:"Borrower"`
	BorrowDate time.Time  `json:"borrowDate" doc:"Borrow time"`
	DueDate    time.Time  `json:"dueDate" doc:"Due time"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty" doc:"Return time, absent while open"`
	Overdue    bool       `json:"overdue" doc:"Open and past due"`
}

// LoanOutput wraps the loan response for Huma.
type LoanOutput struct {
	Body LoanResponse
}

// ReturnInput contains parameters for returning a loan.
type ReturnInput struct {
	ID string `path:"id" doc:"Loan record ID"`
}

// ListLoansInput contains query parameters for listing loans.
type ListLoansInput struct {
	OpenOnly bool `query:"open" doc:"Exclude returned loans"`
}

// ListLoansResponse contains a list of loans.
type ListLoansResponse struct {
	Loans []LoanResponse `json:"loans" doc:"Loans oldest first"`
	Total int            `json:"total" doc:"Number of loans returned"`
}

// ListLoansOutput wraps the list loans response for Huma.
type ListLoansOutput struct {
	Body ListLoansResponse
}

// === Handlers ===

func (s *Server) handleBorrowBook(ctx context.Context, input *BorrowInput) (*LoanOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	session, err := s.services.Auth.Current(ctx)
	if err != nil {
		return nil, err
	}

	loan, err := s.services.Loan.Borrow(ctx, session, input.Body.BookID)
	if err != nil {
		return nil, err
	}
	return &LoanOutput{Body: loanResponse(loan)}, nil
}

func (s *Server) handleReturnBook(ctx context.Context, input *ReturnInput) (*LoanOutput, error) {
	session, err := s.services.Auth.Current(ctx)
	if err != nil {
		return nil, err
	}

	loan, err := s.services.Loan.Return(ctx, session, input.ID)
	if err != nil {
		return nil, err
	}
	return &LoanOutput{Body: loanResponse(loan)}, nil
}

func (s *Server) handleListLoans(ctx context.Context, input *ListLoansInput) (*ListLoansOutput, error) {
	session, err := s.services.Auth.Current(ctx)
	if err != nil {
		return nil, err
	}

	loans, err := s.services.Loan.List(ctx, session, input.OpenOnly)
	if err != nil {
		return nil, err
	}

	resp := make([]LoanResponse, len(loans))
	for i, loan := range loans {
		resp[i] = loanResponse(loan)
	}
	return &ListLoansOutput{Body: ListLoansResponse{Loans: resp, Total: len(resp)}}, nil
}

func loanResponse(loan *domain.LoanRecord) LoanResponse {
	return LoanResponse{
		ID:         loan.ID,
		BookID:     loan.BookID,
		BookTitle:  loan.BookTitle,
		UserID:     loan.UserID,
		BorrowDate: loan.BorrowDate,
		DueDate:    loan.DueDate,
		ReturnedAt: loan.ReturnedAt,
		Overdue:    loan.Overdue(time.Now()),
	}
}
