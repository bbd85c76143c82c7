package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/shelfkeeper/shelfkeeper-server/internal/config"
	"github.com/shelfkeeper/shelfkeeper-server/internal/logger"
	"github.com/shelfkeeper/shelfkeeper-server/internal/refresh"
	"github.com/shelfkeeper/shelfkeeper-server/internal/service"
)

// RefreshSchedulerHandle wraps the refresh scheduler for lifecycle management.
type RefreshSchedulerHandle struct {
	*refresh.Scheduler
}

// Shutdown implements do.Shutdownable.
func (h *RefreshSchedulerHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRefreshScheduler provides the started catalog refresh scheduler.
func ProvideRefreshScheduler(i do.Injector) (*RefreshSchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	catalogSvc := do.MustInvoke[*service.CatalogService](i)
	settingsSvc := do.MustInvoke[*service.SettingsService](i)
	log := do.MustInvoke[*logger.Logger](i)

	scheduler := refresh.New(catalogSvc, settingsSvc, cfg.Catalog.Source, cfg.Catalog.WatchSource, log.Logger)
	scheduler.Start(context.Background())

	return &RefreshSchedulerHandle{Scheduler: scheduler}, nil
}
