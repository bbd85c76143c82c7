package refresh

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	"github.com/shelfkeeper/shelfkeeper-server/internal/errors"
	"github.com/shelfkeeper/shelfkeeper-server/internal/ingest"
	"github.com/shelfkeeper/shelfkeeper-server/internal/service"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
	syncclient "github.com/shelfkeeper/shelfkeeper-server/internal/sync"
	"github.com/shelfkeeper/shelfkeeper-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSource(t *testing.T, path, rows string) {
	t.Helper()
	content := "館藏清單\n匯出日期,2024-03-01\n,,\n書號,書名\n" + rows
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newScheduler(t *testing.T, source string, watch bool) (*Scheduler, *store.Store) {
	t.Helper()
	log := testLogger()

	st, err := store.New(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	syncSvc := service.NewSyncService(st, syncclient.NewClient("", log), log)
	catalogSvc := service.NewCatalogService(st, ingest.NewFetcher(), syncSvc, &sync.Mutex{}, source, log)
	settingsSvc := service.NewSettingsService(st, validation.New(), log)
	return New(catalogSvc, settingsSvc, source, watch, log), st
}

func TestTrigger_RunsOneIngestion(t *testing.T) {
	source := filepath.Join(t.TempDir(), "catalog.csv")
	writeSource(t, source, "A0001,小王子\n")
	s, st := newScheduler(t, source, false)

	result, err := s.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Titles)
	assert.False(t, s.Running())

	books, err := st.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestTrigger_ReleasesGuardAfterFailure(t *testing.T) {
	// The source file does not exist, so every trigger fails; the in-flight
	// guard must still reset between calls.
	s, _ := newScheduler(t, filepath.Join(t.TempDir(), "nope.csv"), false)
	ctx := context.Background()

	_, err := s.Trigger(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errors.ErrConflict)

	_, err = s.Trigger(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errors.ErrConflict, "second trigger is not blocked by the first")
}

func TestStart_NoSourceIsNoop(t *testing.T) {
	s, _ := newScheduler(t, "", false)
	s.Start(context.Background())
	s.Stop()
}

func TestStart_PeriodicDisabledBySettings(t *testing.T) {
	source := filepath.Join(t.TempDir(), "catalog.csv")
	writeSource(t, source, "A0001,小王子\n")
	s, st := newScheduler(t, source, false)

	settings := domain.DefaultSettings()
	settings.RefreshIntervalMs = 0
	require.NoError(t, st.SaveSettings(context.Background(), &settings))

	// The loop reads the zero interval and exits; Stop returns promptly.
	s.Start(context.Background())
	s.Stop()
}

func TestWatch_FileChangeTriggersIngestion(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "catalog.csv")
	writeSource(t, source, "A0001,小王子\n")
	s, st := newScheduler(t, source, true)

	// Disable the periodic loop so only the watcher can ingest.
	settings := domain.DefaultSettings()
	settings.RefreshIntervalMs = 0
	require.NoError(t, st.SaveSettings(context.Background(), &settings))

	s.Start(context.Background())
	defer s.Stop()

	// Give the watcher a moment to register, then rewrite the source.
	time.Sleep(100 * time.Millisecond)
	writeSource(t, source, "A0001,小王子\nB0001,神奇樹屋\n")

	require.Eventually(t, func() bool {
		books, err := st.ListBooks(context.Background())
		return err == nil && len(books) == 2
	}, 5*time.Second, 50*time.Millisecond, "watcher should ingest the rewritten source")
}
