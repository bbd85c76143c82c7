// Package api provides the HTTP API server and handlers for the Shelfkeeper application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shelfkeeper/shelfkeeper-server/internal/refresh"
	"github.com/shelfkeeper/shelfkeeper-server/internal/service"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
	"github.com/shelfkeeper/shelfkeeper-server/internal/validation"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth     *service.AuthService
	Catalog  *service.CatalogService
	Loan     *service.LoanService
	Sync     *service.SyncService
	Settings *service.SettingsService
	Metadata *service.MetadataService
	Refresh  *refresh.Scheduler
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     *store.Store
	services  *Services
	validator *validation.Validator
	router    *chi.Mux
	api       huma.API
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, validator *validation.Validator, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	humaConfig := huma.DefaultConfig("Shelfkeeper API", "1.0.0")
	humaAPI := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:     st,
		services:  services,
		validator: validator,
		router:    router,
		api:       humaAPI,
		logger:    logger,
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerLoanRoutes()
	s.registerIngestRoutes()
	s.registerSettingsRoutes()
	s.registerSyncRoutes()
	s.registerMetadataRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
