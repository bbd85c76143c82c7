// Package refresh re-ingests the catalog source on a timer and, for local
// sources, on file change. At most one ingestion runs at a time; triggers
// that arrive while one is running are rejected, not queued.
package refresh

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shelfkeeper/shelfkeeper-server/internal/errors"
	"github.com/shelfkeeper/shelfkeeper-server/internal/ingest"
	"github.com/shelfkeeper/shelfkeeper-server/internal/service"
)

// settleDelay is how long a changed file must stay quiet before it
// triggers an ingestion. CSV exports are written in bursts.
const settleDelay = 500 * time.Millisecond

// Scheduler drives periodic and change-triggered catalog ingestion.
type Scheduler struct {
	catalog  *service.CatalogService
	settings *service.SettingsService
	logger   *slog.Logger
	source   string
	watch    bool

	inFlight atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a scheduler for the given catalog source. Set watch to also
// re-ingest when a local source file changes.
func New(catalog *service.CatalogService, settings *service.SettingsService, source string, watch bool, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		catalog:  catalog,
		settings: settings,
		logger:   logger,
		source:   source,
		watch:    watch,
	}
}

// Trigger runs one ingestion now. Returns a conflict error when an
// ingestion is already in flight.
func (s *Scheduler) Trigger(ctx context.Context) (*service.IngestResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, errors.Conflict("a catalog refresh is already running")
	}
	defer s.inFlight.Store(false)

	return s.catalog.Ingest(ctx)
}

// Running reports whether an ingestion is currently in flight.
func (s *Scheduler) Running() bool {
	return s.inFlight.Load()
}

// Start launches the periodic loop and, for a local source, the file
// watcher. It returns immediately; call Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) {
	if s.source == "" {
		s.logger.Info("no catalog source configured, refresh disabled")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop(ctx)

	if s.watch && ingest.IsLocalFile(s.source) {
		s.wg.Add(1)
		go s.watchLoop(ctx)
	}
}

// Stop shuts the scheduler down and waits for its goroutines.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// loop re-ingests on the configured interval. The interval is re-read
// every cycle, so a settings change takes effect on the next tick.
func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	for {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			s.logger.Error("failed to read settings for refresh", "error", err)
			return
		}

		interval := settings.RefreshInterval()
		if interval <= 0 {
			s.logger.Info("periodic refresh disabled by settings")
			return
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.Trigger(ctx); err != nil {
			if errors.Is(err, errors.ErrConflict) {
				s.logger.Debug("periodic refresh skipped, one already running")
				continue
			}
			s.logger.Warn("periodic refresh failed", "error", err)
		}
	}
}

// watchLoop triggers an ingestion when the local source file settles after
// a change.
func (s *Scheduler) watchLoop(ctx context.Context) {
	defer s.wg.Done()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Error("failed to create file watcher", "error", err)
		return
	}
	defer watcher.Close()

	// Watch the parent so replace-by-rename is still seen.
	target := filepath.Clean(s.source)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch catalog source",
			"path", target,
			"error", err,
		)
		return
	}
	s.logger.Info("watching catalog source", "path", target)

	var settle *time.Timer
	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if settle != nil {
				settle.Stop()
			}
			settle = time.AfterFunc(settleDelay, func() {
				if _, err := s.Trigger(ctx); err != nil {
					if errors.Is(err, errors.ErrConflict) {
						return
					}
					s.logger.Warn("change-triggered refresh failed", "error", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("file watcher error", "error", err)
		}
	}
}
