package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

// GetSettings returns the stored library settings, or the defaults when
// nothing has been persisted yet.
func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	settings, err := getJSON[domain.Settings](s, settingsKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			defaults := domain.DefaultSettings()
			return &defaults, nil
		}
		return nil, err
	}
	return settings, nil
}

// SeedSettings persists the given settings only when none are stored yet.
// Reports whether a write happened.
func (s *Store) SeedSettings(ctx context.Context, settings *domain.Settings) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	_, err := getJSON[domain.Settings](s, settingsKey)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if err := setJSON(s, settingsKey, settings); err != nil {
		return false, err
	}
	return true, nil
}

// SaveSettings persists the library settings.
func (s *Store) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return setJSON(s, settingsKey, settings)
}

// GetSession returns the active session, or ErrNotFound when nobody is
// logged in.
func (s *Store) GetSession(ctx context.Context) (*domain.Session, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	return getJSON[domain.Session](s, sessionKey)
}

// SaveSession persists the active session, replacing any previous one.
func (s *Store) SaveSession(ctx context.Context, session *domain.Session) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return setJSON(s, sessionKey, session)
}

// ClearSession removes the active session. Clearing an absent session is
// not an error.
func (s *Store) ClearSession(ctx context.Context) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	err := deleteKey(s, sessionKey)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// GetArchive returns the opaque archive blob carried through sync, or nil
// when none has been stored.
func (s *Store) GetArchive(ctx context.Context) (json.RawMessage, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	blob, err := getJSON[json.RawMessage](s, archiveKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return *blob, nil
}

// SaveArchive persists the opaque archive blob.
func (s *Store) SaveArchive(ctx context.Context, blob json.RawMessage) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return setJSON(s, archiveKey, blob)
}

// Snapshot is the full persisted state pushed to the remote sheet store.
type Snapshot struct {
	Books   []*domain.Book
	Loans   []*domain.LoanRecord
	Archive json.RawMessage
}

// TakeSnapshot reads the current catalog, loans and archive in one pass.
func (s *Store) TakeSnapshot(ctx context.Context) (*Snapshot, error) {
	books, err := s.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := s.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	archive, err := s.GetArchive(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Books: books, Loans: loans, Archive: archive}, nil
}
