package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/shelfkeeper/shelfkeeper-server/internal/api"
	"github.com/shelfkeeper/shelfkeeper-server/internal/config"
	"github.com/shelfkeeper/shelfkeeper-server/internal/logger"
	"github.com/shelfkeeper/shelfkeeper-server/internal/service"
	"github.com/shelfkeeper/shelfkeeper-server/internal/validation"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:     do.MustInvoke[*service.AuthService](i),
		Catalog:  do.MustInvoke[*service.CatalogService](i),
		Loan:     do.MustInvoke[*service.LoanService](i),
		Sync:     do.MustInvoke[*service.SyncService](i),
		Settings: do.MustInvoke[*service.SettingsService](i),
		Metadata: do.MustInvoke[*service.MetadataService](i),
		Refresh:  do.MustInvoke[*RefreshSchedulerHandle](i).Scheduler,
	}

	handler := api.NewServer(storeHandle.Store, services, validator, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
