package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports the library, search index, event stream and viewport layout",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// Component statuses, from best to worst.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

var statusRank = map[string]int{statusHealthy: 0, statusDegraded: 1, statusUnhealthy: 2}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" enum:"healthy,degraded,unhealthy" doc:"Component status"`
	Latency string `json:"latency,omitempty" doc:"Time the check took"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" enum:"healthy,degraded,unhealthy" doc:"Worst component status"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	assets := -1
	components := make(map[string]ComponentHealth, 4)

	if s.services == nil || s.services.Assets == nil {
		components["library"] = ComponentHealth{Status: statusUnhealthy, Message: "library not configured"}
	} else {
		assets = len(s.services.Assets.List())
		components["library"] = ComponentHealth{Status: statusHealthy, Message: plural(assets, "asset")}
	}
	components["search"] = s.checkSearchIndex(assets)
	components["sse"] = s.checkEvents()
	components["layout"] = s.checkLayout()

	overall := statusHealthy
	for _, c := range components {
		if statusRank[c.Status] > statusRank[overall] {
			overall = c.Status
		}
	}
	return &HealthOutput{Body: HealthResponse{Status: overall, Components: components}}, nil
}

// checkSearchIndex compares the index against the library. A drifted
// index still answers queries, so drift only degrades.
func (s *Server) checkSearchIndex(assets int) ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search service not configured"}
	}

	start := time.Now()
	count, err := s.services.Search.DocumentCount()
	latency := time.Since(start).String()
	switch {
	case err != nil:
		return ComponentHealth{Status: statusUnhealthy, Latency: latency, Message: "search index unreachable"}
	case assets >= 0 && count != uint64(assets):
		return ComponentHealth{
			Status:  statusDegraded,
			Latency: latency,
			Message: fmt.Sprintf("index holds %d of %d assets", count, assets),
		}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency, Message: plural(int(count), "document")}
}

func (s *Server) checkEvents() ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{Status: statusDegraded, Message: "event stream not configured"}
	}
	return ComponentHealth{Status: statusHealthy, Message: plural(s.sseManager.ClientCount(), "connected client")}
}

func (s *Server) checkLayout() ComponentHealth {
	if s.services == nil || s.services.Layouts == nil {
		return ComponentHealth{Status: statusDegraded, Message: "layout service not configured"}
	}
	if s.services.Layouts.Pending() {
		return ComponentHealth{Status: statusHealthy, Message: "recomputing"}
	}
	cur := s.services.Layouts.Current()
	if cur == nil {
		return ComponentHealth{Status: statusHealthy, Message: "no viewport yet"}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Message: fmt.Sprintf("%s at width %g", plural(cur.Columns, "column"), cur.Width),
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
