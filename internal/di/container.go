// Package di provides dependency injection configuration for the Shelfkeeper server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/shelfkeeper/shelfkeeper-server/internal/config"
	"github.com/shelfkeeper/shelfkeeper-server/internal/di/providers"
	"github.com/shelfkeeper/shelfkeeper-server/internal/logger"
	"github.com/shelfkeeper/shelfkeeper-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// External clients
	do.Provide(injector, providers.ProvideSyncClient)
	do.Provide(injector, providers.ProvideBooksTWClient)

	// Business services
	do.Provide(injector, providers.ProvideLibraryMutex)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideSyncService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideLoanService)
	do.Provide(injector, providers.ProvideSettingsService)
	do.Provide(injector, providers.ProvideMetadataService)

	// Workers
	do.Provide(injector, providers.ProvideRefreshScheduler)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is running.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.SyncService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.LoanService](injector)
	_ = do.MustInvoke[*service.SettingsService](injector)
	_ = do.MustInvoke[*service.MetadataService](injector)

	// Workers
	_ = do.MustInvoke[*providers.RefreshSchedulerHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
