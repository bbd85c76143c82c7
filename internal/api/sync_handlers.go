package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSyncRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "pushState",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/push",
		Summary:     "Push state",
		Description: "Uploads the full local state, replacing the remote's copy",
		Tags:        []string{"Sync"},
	}, s.handlePushState)

	huma.Register(s.api, huma.Operation{
		OperationID: "pullState",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/pull",
		Summary:     "Pull state",
		Description: "Downloads the remote state and adopts it wholesale",
		Tags:        []string{"Sync"},
	}, s.handlePullState)
}

// PullResultResponse reports what a pull adopted.
type PullResultResponse struct {
	Books int `json:"books" doc:"Books adopted"`
	Loans int `json:"loans" doc:"Loans adopted"`
}

// PullResultOutput wraps the pull result for Huma.
type PullResultOutput struct {
	Body PullResultResponse
}

func (s *Server) handlePushState(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if err := s.services.Sync.Push(ctx); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "State pushed"}}, nil
}

func (s *Server) handlePullState(ctx context.Context, _ *struct{}) (*PullResultOutput, error) {
	books, loans, err := s.services.Sync.Pull(ctx)
	if err != nil {
		return nil, err
	}
	return &PullResultOutput{Body: PullResultResponse{Books: books, Loans: loans}}, nil
}
