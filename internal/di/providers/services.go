package providers

import (
	"sync"

	"github.com/samber/do/v2"

	"github.com/shelfkeeper/shelfkeeper-server/internal/config"
	"github.com/shelfkeeper/shelfkeeper-server/internal/ingest"
	"github.com/shelfkeeper/shelfkeeper-server/internal/logger"
	"github.com/shelfkeeper/shelfkeeper-server/internal/metadata/bookstw"
	"github.com/shelfkeeper/shelfkeeper-server/internal/service"
	syncclient "github.com/shelfkeeper/shelfkeeper-server/internal/sync"
	"github.com/shelfkeeper/shelfkeeper-server/internal/validation"
)

// LibraryMutex is the single mutex serializing catalog and loan mutations.
type LibraryMutex struct {
	*sync.Mutex
}

// ProvideLibraryMutex provides the shared mutation mutex.
func ProvideLibraryMutex(i do.Injector) (*LibraryMutex, error) {
	return &LibraryMutex{Mutex: &sync.Mutex{}}, nil
}

// ProvideSyncClient provides the remote sheet store client.
func ProvideSyncClient(i do.Injector) (*syncclient.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	return syncclient.NewClient(cfg.Sync.Endpoint, log.Logger), nil
}

// ProvideBooksTWClient provides the books.com.tw metadata client.
func ProvideBooksTWClient(i do.Injector) (*bookstw.Client, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return bookstw.NewClient(log.Logger), nil
}

// ProvideAuthService provides the session service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	st := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewAuthService(st.Store, log.Logger), nil
}

// ProvideSyncService provides the sync service.
func ProvideSyncService(i do.Injector) (*service.SyncService, error) {
	st := do.MustInvoke[*StoreHandle](i)
	client := do.MustInvoke[*syncclient.Client](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewSyncService(st.Store, client, log.Logger), nil
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	st := do.MustInvoke[*StoreHandle](i)
	syncSvc := do.MustInvoke[*service.SyncService](i)
	mu := do.MustInvoke[*LibraryMutex](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(st.Store, ingest.NewFetcher(), syncSvc, mu.Mutex, cfg.Catalog.Source, log.Logger), nil
}

// ProvideLoanService provides the loan service.
func ProvideLoanService(i do.Injector) (*service.LoanService, error) {
	st := do.MustInvoke[*StoreHandle](i)
	syncSvc := do.MustInvoke[*service.SyncService](i)
	mu := do.MustInvoke[*LibraryMutex](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewLoanService(st.Store, syncSvc, mu.Mutex, log.Logger), nil
}

// ProvideSettingsService provides the settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	st := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewSettingsService(st.Store, validator, log.Logger), nil
}

// ProvideMetadataService provides the metadata service.
func ProvideMetadataService(i do.Injector) (*service.MetadataService, error) {
	st := do.MustInvoke[*StoreHandle](i)
	client := do.MustInvoke[*bookstw.Client](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewMetadataService(st.Store, client, log.Logger), nil
}
