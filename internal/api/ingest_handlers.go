package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerIngestRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "triggerRefresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/catalog/refresh",
		Summary:     "Refresh catalog",
		Description: "Re-ingests the CSV source now. Returns a conflict when a refresh is already running",
		Tags:        []string{"Catalog"},
	}, s.handleTriggerRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRefreshStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/refresh",
		Summary:     "Refresh status",
		Description: "Reports whether an ingestion is in flight",
		Tags:        []string{"Catalog"},
	}, s.handleGetRefreshStatus)
}

// RefreshStatusResponse reports the scheduler state.
type RefreshStatusResponse struct {
	Running bool `json:"running" doc:"An ingestion is currently in flight"`
}

// RefreshStatusOutput wraps the refresh status for Huma.
type RefreshStatusOutput struct {
	Body RefreshStatusResponse
}

func (s *Server) handleTriggerRefresh(ctx context.Context, _ *struct{}) (*IngestResultOutput, error) {
	result, err := s.services.Refresh.Trigger(ctx)
	if err != nil {
		return nil, err
	}
	return &IngestResultOutput{Body: *result}, nil
}

func (s *Server) handleGetRefreshStatus(_ context.Context, _ *struct{}) (*RefreshStatusOutput, error) {
	return &RefreshStatusOutput{
		Body: RefreshStatusResponse{Running: s.services.Refresh.Running()},
	}, nil
}
