package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings",
		Summary:     "Get settings",
		Description: "Returns the library settings",
		Tags:        []string{"Settings"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings",
		Summary:     "Update settings",
		Description: "Replaces the library settings",
		Tags:        []string{"Settings"},
	}, s.handleUpdateSettings)
}

// SettingsOutput wraps the settings for Huma.
type SettingsOutput struct {
	Body domain.Settings
}

// UpdateSettingsInput wraps the settings update request for Huma.
type UpdateSettingsInput struct {
	Body domain.Settings
}

func (s *Server) handleGetSettings(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: *settings}, nil
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Update(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: *settings}, nil
}
