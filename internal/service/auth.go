// Package service implements the business operations over the store:
// catalog lifecycle, the loan ledger, sessions, settings, sync and
// metadata lookup.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	domainerrors "github.com/shelfkeeper/shelfkeeper-server/internal/errors"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
)

// AuthService manages the single active session. The server trusts the
// identity the client presents; there is no credential check.
type AuthService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store *store.Store, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:  store,
		logger: logger,
	}
}

// Login starts a session for the given user, replacing any active one.
func (s *AuthService) Login(ctx context.Context, username string, role domain.Role) (*domain.Session, error) {
	if username == "" {
		return nil, domainerrors.Validation("username is required")
	}
	if !domain.ValidRole(role) {
		return nil, domainerrors.Validationf("unknown role %q", role)
	}

	session := &domain.Session{
		ID:       uuid.NewString(),
		Username: username,
		Role:     role,
		LoginAt:  time.Now(),
	}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		"username", username,
		"role", role,
	)
	return session, nil
}

// Logout ends the active session. Logging out with no session is not an error.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.ClearSession(ctx); err != nil {
		return err
	}
	s.logger.Info("user logged out")
	return nil
}

// Current returns the active session, or an auth error when nobody is
// logged in.
func (s *AuthService) Current(ctx context.Context) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.AuthRequired("not logged in")
		}
		return nil, err
	}
	return session, nil
}
