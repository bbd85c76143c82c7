package service

import (
	"context"
	"log/slog"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
	"github.com/shelfkeeper/shelfkeeper-server/internal/validation"
)

// SettingsService reads and updates the library settings.
type SettingsService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// Get returns the current settings, falling back to defaults.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	return s.store.GetSettings(ctx)
}

// Update validates and persists new settings. A changed refresh interval
// takes effect on the scheduler's next cycle.
func (s *SettingsService) Update(ctx context.Context, settings domain.Settings) (*domain.Settings, error) {
	if err := s.validator.Validate(settings); err != nil {
		return nil, err
	}
	if err := s.store.SaveSettings(ctx, &settings); err != nil {
		return nil, err
	}

	s.logger.Info("settings updated",
		"loan_days", settings.LoanDays,
		"guest_borrow", settings.GuestBorrow,
		"refresh_interval", settings.RefreshInterval(),
	)
	return &settings, nil
}
