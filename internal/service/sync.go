package service

import (
	"context"
	"log/slog"

	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
	"github.com/shelfkeeper/shelfkeeper-server/internal/sync"
)

// SyncService moves the full library state between the store and the
// remote sheet endpoint.
type SyncService struct {
	store  *store.Store
	client *sync.Client
	logger *slog.Logger
}

// NewSyncService creates a new sync service.
func NewSyncService(store *store.Store, client *sync.Client, logger *slog.Logger) *SyncService {
	return &SyncService{
		store:  store,
		client: client,
		logger: logger,
	}
}

// Enabled reports whether a remote endpoint is configured.
func (s *SyncService) Enabled() bool {
	return s.client.Enabled()
}

// Push uploads the current local state, replacing the remote's copy.
func (s *SyncService) Push(ctx context.Context) error {
	snapshot, err := s.store.TakeSnapshot(ctx)
	if err != nil {
		return err
	}
	return s.client.Push(ctx, &sync.State{
		Books:   snapshot.Books,
		Loans:   snapshot.Loans,
		Archive: snapshot.Archive,
	})
}

// PushBestEffort pushes the current state if a remote is configured,
// logging failures instead of returning them. Mutating operations call
// this after committing locally; the local store stays authoritative.
func (s *SyncService) PushBestEffort(ctx context.Context) {
	if !s.client.Enabled() {
		return
	}
	if err := s.Push(ctx); err != nil {
		s.logger.Warn("background push failed", "error", err)
	}
}

// Pull downloads the remote state and adopts it wholesale, replacing the
// local catalog, loan ledger and archive.
func (s *SyncService) Pull(ctx context.Context) (int, int, error) {
	state, err := s.client.Pull(ctx)
	if err != nil {
		return 0, 0, err
	}

	if err := s.store.ReplaceCatalog(ctx, state.Books); err != nil {
		return 0, 0, err
	}
	if err := s.store.ReplaceLoans(ctx, state.Loans); err != nil {
		return 0, 0, err
	}
	if len(state.Archive) > 0 {
		if err := s.store.SaveArchive(ctx, state.Archive); err != nil {
			return 0, 0, err
		}
	}

	s.logger.Info("remote state adopted",
		"books", len(state.Books),
		"loans", len(state.Loans),
	)
	return len(state.Books), len(state.Loans), nil
}
