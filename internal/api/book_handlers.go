package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfkeeper/shelfkeeper-server/internal/catalog"
	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	"github.com/shelfkeeper/shelfkeeper-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the catalog filtered, genre-bucketed and sorted",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by its primary catalog ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Add book",
		Description: "Appends one manually entered book to the catalog",
		Tags:        []string{"Books"},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "importBooks",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/import",
		Summary:     "Import books",
		Description: "Appends a batch of CSV rows to the catalog",
		Tags:        []string{"Books"},
	}, s.handleImportBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "nextBookID",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/next-id/{prefix}",
		Summary:     "Next free catalog ID",
		Description: "Returns the lowest free catalog ID for a genre prefix",
		Tags:        []string{"Books"},
	}, s.handleNextBookID)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Library statistics",
		Description: "Returns title, copy and loan counts",
		Tags:        []string{"Books"},
	}, s.handleGetStats)
}

// === DTOs ===

// ListBooksInput contains query parameters for listing books.
type ListBooksInput struct {
	Query       string `query:"q" doc:"Substring to match against title, catalog IDs, year or genre label"`
	Genre       string `query:"genre" enum:"picture_book,bridge_book,text_book,unknown," doc:"Exact genre filter"`
	SortField   string `query:"sort" enum:"title,year,id," doc:"Sort field within each genre bucket"`
	SortOrder   string `query:"order" enum:"asc,desc," doc:"Sort direction"`
	GroupSeries bool   `query:"series" doc:"Group books of one series into contiguous blocks"`
}

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID              string   `json:"id" doc:"Primary catalog ID"`
	BookIDs         []string `json:"bookIds" doc:"All catalog IDs folded into this title"`
	Title           string   `json:"title" doc:"Book title"`
	Author          string   `json:"author,omitempty" doc:"Author"`
	CoverURL        string   `json:"coverUrl,omitempty" doc:"Cover image URL"`
	Genre           string   `json:"genre" doc:"Genre"`
	GenreDisplay    string   `json:"genreDisplay" doc:"Reader-facing genre label"`
	Year            int      `json:"year" doc:"Acquisition year"`
	Copies          int      `json:"copies" doc:"Total physical copies"`
	AvailableCopies int      `json:"availableCopies" doc:"Copies currently on the shelf"`
}

// ListBooksResponse contains a list of books.
type ListBooksResponse struct {
	Books []BookResponse `json:"books" doc:"Books in display order"`
	Total int            `json:"total" doc:"Number of books returned"`
}

// ListBooksOutput wraps the list books response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	ID string `path:"id" doc:"Primary catalog ID"`
}

// BookOutput wraps the book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// CreateBookInput wraps the add-book request for Huma.
type CreateBookInput struct {
	Body service.AddBookParams
}

// ImportBooksRequest is the request body for a batch import.
type ImportBooksRequest struct {
	Rows [][]string `json:"rows" validate:"required" doc:"CSV rows including the header row"`
}

// ImportBooksInput wraps the import request for Huma.
type ImportBooksInput struct {
	Body ImportBooksRequest
}

// IngestResultOutput wraps an ingestion result for Huma.
type IngestResultOutput struct {
	Body service.IngestResult
}

// NextBookIDInput contains parameters for the ID allocator.
type NextBookIDInput struct {
	Prefix string `path:"prefix" doc:"Genre prefix letter"`
}

// NextBookIDResponse contains the allocated ID.
type NextBookIDResponse struct {
	ID string `json:"id" doc:"Lowest free catalog ID for the prefix"`
}

// NextBookIDOutput wraps the next ID response for Huma.
type NextBookIDOutput struct {
	Body NextBookIDResponse
}

// StatsOutput wraps library statistics for Huma.
type StatsOutput struct {
	Body service.Stats
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	opts := service.ListOptions{
		Query:       input.Query,
		Genre:       domain.Genre(input.Genre),
		SortField:   catalog.SortField(input.SortField),
		SortOrder:   catalog.SortOrder(input.SortOrder),
		GroupSeries: input.GroupSeries,
	}
	if opts.SortField == "" {
		opts.SortField = catalog.SortByTitle
	}
	if opts.SortOrder == "" {
		opts.SortOrder = catalog.Ascending
	}

	books, err := s.services.Catalog.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	resp := make([]BookResponse, len(books))
	for i, book := range books {
		resp[i] = bookResponse(book)
	}
	return &ListBooksOutput{Body: ListBooksResponse{Books: resp, Total: len(resp)}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.services.Catalog.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: bookResponse(book)}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	book, err := s.services.Catalog.AddBook(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: bookResponse(book)}, nil
}

func (s *Server) handleImportBooks(ctx context.Context, input *ImportBooksInput) (*IngestResultOutput, error) {
	result, err := s.services.Catalog.Import(ctx, input.Body.Rows)
	if err != nil {
		return nil, err
	}
	return &IngestResultOutput{Body: *result}, nil
}

func (s *Server) handleNextBookID(ctx context.Context, input *NextBookIDInput) (*NextBookIDOutput, error) {
	id, err := s.services.Catalog.NextID(ctx, input.Prefix)
	if err != nil {
		return nil, err
	}
	return &NextBookIDOutput{Body: NextBookIDResponse{ID: id}}, nil
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	stats, err := s.services.Catalog.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: *stats}, nil
}

func bookResponse(book *domain.Book) BookResponse {
	return BookResponse{
		ID:              book.ID,
		BookIDs:         book.BookIDs,
		Title:           book.Title,
		Author:          book.Author,
		CoverURL:        book.CoverURL,
		Genre:           string(book.Genre),
		GenreDisplay:    book.Genre.Display(),
		Year:            book.Year,
		Copies:          book.Copies,
		AvailableCopies: book.AvailableCopies,
	}
}
