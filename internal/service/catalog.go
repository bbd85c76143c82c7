package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/shelfkeeper/shelfkeeper-server/internal/catalog"
	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	domainerrors "github.com/shelfkeeper/shelfkeeper-server/internal/errors"
	"github.com/shelfkeeper/shelfkeeper-server/internal/ingest"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
)

// IngestResult reports the outcome of a catalog ingestion.
type IngestResult struct {
	Titles    int      `json:"titles"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// ListOptions narrows and orders a catalog listing.
type ListOptions struct {
	Query       string
	Genre       domain.Genre
	SortField   catalog.SortField
	SortOrder   catalog.SortOrder
	GroupSeries bool
}

// Stats summarizes the library's current state.
type Stats struct {
	Titles    int `json:"titles"`
	Copies    int `json:"copies"`
	Available int `json:"available"`
	OnLoan    int `json:"onLoan"`
}

// CatalogService owns the book catalog: ingestion from the CSV source,
// manual additions, imports, listing and ID allocation.
type CatalogService struct {
	store   *store.Store
	fetcher *ingest.Fetcher
	sorter  *catalog.Sorter
	sync    *SyncService
	logger  *slog.Logger
	source  string

	// mu serializes catalog and loan mutations. Shared with LoanService so
	// a rebuild never interleaves with a borrow.
	mu *sync.Mutex
}

// NewCatalogService creates a new catalog service reading from source.
func NewCatalogService(store *store.Store, fetcher *ingest.Fetcher, syncSvc *SyncService, mu *sync.Mutex, source string, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:   store,
		fetcher: fetcher,
		sorter:  catalog.NewSorter(),
		sync:    syncSvc,
		logger:  logger,
		source:  source,
		mu:      mu,
	}
}

// Ingest fetches the configured CSV source, merges duplicate titles and
// replaces the stored catalog. Row errors are collected in the result, not
// returned: a bad row never aborts the rows around it.
func (s *CatalogService) Ingest(ctx context.Context) (*IngestResult, error) {
	if s.source == "" {
		return nil, domainerrors.Validation("catalog source not configured")
	}

	body, err := s.fetcher.Fetch(ctx, s.source)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "fetch catalog source %s", s.source)
	}
	defer body.Close()

	candidates, parseReport, err := ingest.ParseCatalog(body)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "read catalog source")
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	books, mergeReport := catalog.Merge(candidates, *settings)

	s.mu.Lock()
	err = s.store.ReplaceCatalog(ctx, books)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	result := &IngestResult{
		Titles:    len(books),
		Succeeded: mergeReport.Succeeded,
		Failed:    parseReport.Failed + mergeReport.Failed,
		Errors:    append(parseReport.Errors, mergeReport.Errors...),
	}

	s.logger.Info("catalog ingested",
		"source", s.source,
		"titles", result.Titles,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)

	s.sync.PushBestEffort(ctx)
	return result, nil
}

// List returns the catalog filtered, genre-bucketed and sorted per opts.
func (s *CatalogService) List(ctx context.Context, opts ListOptions) ([]*domain.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	books = catalog.Filter(books, opts.Query, opts.Genre)
	books = s.sorter.Sort(books, opts.SortField, opts.SortOrder)
	if opts.GroupSeries {
		// Grouping is a presentation pass on top of whatever sort ran.
		books = s.sorter.GroupSeries(books)
	}
	return books, nil
}

// Get returns one book by its primary catalog ID.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("book %s not found", id)
		}
		return nil, err
	}
	return book, nil
}

// AddBookParams are the fields for a manual catalog addition.
type AddBookParams struct {
	ID     string `json:"id" validate:"required"`
	Title  string `json:"title" validate:"required"`
	Author string `json:"author"`
	Year   int    `json:"year" validate:"gte=0"`
	Copies int    `json:"copies" validate:"gte=0"`
}

// AddBook appends one manually entered book to the catalog. Unlike CSV
// ingestion, a manual add never merges into an existing title.
func (s *CatalogService) AddBook(ctx context.Context, params AddBookParams) (*domain.Book, error) {
	id := strings.ToUpper(strings.TrimSpace(params.ID))
	if !domain.ValidBookID(id) {
		return nil, domainerrors.Validationf("malformed book ID (%s)", params.ID)
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, domainerrors.Validation("title is required")
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	year := params.Year
	if year == 0 {
		year = settings.DefaultYear
	}
	copies := params.Copies
	if copies == 0 {
		copies = settings.DefaultCopies
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.findByAnyID(ctx, id); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domainerrors.AlreadyExistsf("book ID %s already in catalog", id)
	}

	book := &domain.Book{
		ID:              id,
		BookIDs:         []string{id},
		Title:           title,
		Author:          strings.TrimSpace(params.Author),
		Genre:           domain.GenreFromID(id),
		Year:            year,
		Copies:          copies,
		AvailableCopies: copies,
	}
	if err := s.store.AppendBooks(ctx, []*domain.Book{book}); err != nil {
		return nil, err
	}

	s.logger.Info("book added", "id", book.ID, "title", book.Title)
	s.sync.PushBestEffort(ctx)
	return book, nil
}

// Import appends a batch of parsed CSV rows to the catalog without
// replacing it. Each row stays its own title.
func (s *CatalogService) Import(ctx context.Context, rows [][]string) (*IngestResult, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	existingIDs := make(map[string]bool)
	for _, book := range existing {
		for _, id := range book.BookIDs {
			existingIDs[id] = true
		}
	}

	books, report := ingest.ParseImport(rows, existingIDs, *settings)
	if len(books) > 0 {
		if err := s.store.AppendBooks(ctx, books); err != nil {
			return nil, err
		}
	}

	result := &IngestResult{
		Titles:    len(books),
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Errors:    report.Errors,
	}

	s.logger.Info("books imported",
		"added", result.Titles,
		"failed", result.Failed,
	)

	s.sync.PushBestEffort(ctx)
	return result, nil
}

// NextID returns the lowest free catalog ID for the given genre prefix.
func (s *CatalogService) NextID(ctx context.Context, prefix string) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", domainerrors.Validation("prefix is required")
	}

	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return "", err
	}
	return catalog.NextID(books, prefix), nil
}

// Stats summarizes titles, copies and loans.
func (s *CatalogService) Stats(ctx context.Context) (*Stats, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.store.OpenLoans(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Titles: len(books),
		OnLoan: len(open),
	}
	for _, book := range books {
		stats.Copies += book.Copies
		stats.Available += book.AvailableCopies
	}
	return stats, nil
}

// findByAnyID scans for a book holding the given catalog ID, primary or
// merged. Returns nil when no book holds it.
func (s *CatalogService) findByAnyID(ctx context.Context, id string) (*domain.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	for _, book := range books {
		if book.HasBookID(id) {
			return book, nil
		}
	}
	return nil, nil
}
