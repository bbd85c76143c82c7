package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth)
	overall := "healthy"

	dbHealth := s.checkDatabase(ctx)
	components["database"] = dbHealth
	if dbHealth.Status != "healthy" {
		overall = "unhealthy"
	}

	syncHealth := s.checkSync()
	components["sync"] = syncHealth
	if syncHealth.Status == "degraded" && overall == "healthy" {
		overall = "degraded"
	}

	components["refresh"] = s.checkRefresh()

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkDatabase verifies BadgerDB is accessible.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "database not configured",
		}
	}

	start := time.Now()

	// Quick read to verify the DB answers. An empty settings key is fine.
	_, err := s.store.GetSettings(ctx)
	latency := time.Since(start)

	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "database read failed",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// checkSync reports whether a remote sheet endpoint is configured.
func (s *Server) checkSync() ComponentHealth {
	if s.services == nil || s.services.Sync == nil || !s.services.Sync.Enabled() {
		return ComponentHealth{
			Status:  "degraded",
			Message: "sync endpoint not configured",
		}
	}
	return ComponentHealth{Status: "healthy"}
}

// checkRefresh reports the refresh scheduler's state.
func (s *Server) checkRefresh() ComponentHealth {
	if s.services == nil || s.services.Refresh == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "refresh scheduler not configured",
		}
	}
	if s.services.Refresh.Running() {
		return ComponentHealth{
			Status:  "healthy",
			Message: "refresh in progress",
		}
	}
	return ComponentHealth{Status: "healthy"}
}
