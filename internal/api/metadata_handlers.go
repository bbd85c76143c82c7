package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfkeeper/shelfkeeper-server/internal/metadata/bookstw"
)

func (s *Server) registerMetadataRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchMetadata",
		Method:      http.MethodGet,
		Path:        "/api/v1/metadata/search",
		Summary:     "Search book metadata",
		Description: "Looks a keyword up on books.com.tw and returns the first hit",
		Tags:        []string{"Metadata"},
	}, s.handleSearchMetadata)

	huma.Register(s.api, huma.Operation{
		OperationID: "enrichBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/enrich",
		Summary:     "Enrich book",
		Description: "Fills a book's missing author and cover from a title lookup",
		Tags:        []string{"Metadata"},
	}, s.handleEnrichBook)
}

// SearchMetadataInput contains query parameters for a metadata lookup.
type SearchMetadataInput struct {
	Keyword string `query:"q" required:"true" doc:"Search keyword"`
}

// SearchMetadataResponse contains a metadata lookup result.
type SearchMetadataResponse struct {
	Found  bool            `json:"found" doc:"A hit was found"`
	Result *bookstw.Result `json:"result,omitempty" doc:"First hit, absent on a miss"`
}

// SearchMetadataOutput wraps the metadata lookup response for Huma.
type SearchMetadataOutput struct {
	Body SearchMetadataResponse
}

// EnrichBookInput contains parameters for enriching a book.
type EnrichBookInput struct {
	ID string `path:"id" doc:"Primary catalog ID"`
}

func (s *Server) handleSearchMetadata(ctx context.Context, input *SearchMetadataInput) (*SearchMetadataOutput, error) {
	result, err := s.services.Metadata.Search(ctx, input.Keyword)
	if err != nil {
		return nil, err
	}
	return &SearchMetadataOutput{
		Body: SearchMetadataResponse{Found: result != nil, Result: result},
	}, nil
}

func (s *Server) handleEnrichBook(ctx context.Context, input *EnrichBookInput) (*BookOutput, error) {
	book, err := s.services.Metadata.Enrich(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: bookResponse(book)}, nil
}
