package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	domainerrors "github.com/shelfkeeper/shelfkeeper-server/internal/errors"
	"github.com/shelfkeeper/shelfkeeper-server/internal/metadata/bookstw"
	"github.com/shelfkeeper/shelfkeeper-server/internal/normalize"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
)

// MetadataService looks up external book metadata and folds it into the
// catalog. Everything here is best effort; a failed lookup never blocks
// library operations.
type MetadataService struct {
	store  *store.Store
	client *bookstw.Client
	logger *slog.Logger
}

// NewMetadataService creates a new metadata service.
func NewMetadataService(store *store.Store, client *bookstw.Client, logger *slog.Logger) *MetadataService {
	return &MetadataService{
		store:  store,
		client: client,
		logger: logger,
	}
}

// Search looks up a keyword and returns the first hit, or nil on a miss.
func (s *MetadataService) Search(ctx context.Context, keyword string) (*bookstw.Result, error) {
	return s.client.Search(ctx, keyword)
}

// Enrich fills a book's missing author and cover from a title lookup.
// Fields the catalog already has are never overwritten. Returns the book
// unchanged on a lookup miss.
func (s *MetadataService) Enrich(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("book %s not found", bookID)
		}
		return nil, err
	}

	// Search on the cleaned stem so volume suffixes don't spoil the match.
	result, err := s.client.Search(ctx, normalize.CleanTitle(book.Title))
	if err != nil {
		s.logger.Warn("metadata lookup failed",
			"book_id", bookID,
			"error", err,
		)
		return book, nil
	}
	if result == nil {
		return book, nil
	}

	changed := false
	if book.Author == "" && result.Author != "" {
		book.Author = result.Author
		changed = true
	}
	if book.CoverURL == "" && result.CoverURL != "" {
		book.CoverURL = result.CoverURL
		changed = true
	}
	if !changed {
		return book, nil
	}

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}
	s.logger.Info("book enriched",
		"book_id", bookID,
		"author", book.Author != "",
		"cover", book.CoverURL != "",
	)
	return book, nil
}
