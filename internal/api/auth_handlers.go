package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Log in",
		Description: "Starts a session for the given user, replacing any active session",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Log out",
		Description: "Ends the active session",
		Tags:        []string{"Auth"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current session",
		Description: "Returns the active session",
		Tags:        []string{"Auth"},
	}, s.handleGetCurrentSession)
}

// === DTOs ===

// LoginRequest is the request body for starting a session.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50" doc:"Display name of the user"`
	Role     string `json:"role" validate:"required,oneof=guest student staff" doc:"Session role"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// SessionResponse contains session data in API responses.
type SessionResponse struct {
	ID          string    `json:"id" doc:"Session ID"`
	Username    string    `json:"username" doc:"Display name"`
	Role        string    `json:"role" doc:"Session role"`
	RoleDisplay string    `json:"roleDisplay" doc:"Reader-facing role label"`
	LoginAt     time.Time `json:"loginAt" doc:"Session start time"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Body SessionResponse
}

// MessageResponse contains a status message.
type MessageResponse struct {
	Message string `json:"message" doc:"Status message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	session, err := s.services.Auth.Login(ctx, input.Body.Username, domain.Role(input.Body.Role))
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: sessionResponse(session)}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if err := s.services.Auth.Logout(ctx); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Logged out"}}, nil
}

func (s *Server) handleGetCurrentSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	session, err := s.services.Auth.Current(ctx)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sessionResponse(session)}, nil
}

func sessionResponse(session *domain.Session) SessionResponse {
	return SessionResponse{
		ID:          session.ID,
		Username:    session.Username,
		Role:        string(session.Role),
		RoleDisplay: session.Role.Display(),
		LoginAt:     session.LoginAt,
	}
}
