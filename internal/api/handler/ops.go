package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/api/response"
	"github.com/tacnavial/tacnavial/internal/provider/resilience"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// Check is a named dependency probe, such as a database ping.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Counter reports the size of a store for the status page.
type Counter struct {
	Name  string
	Value func(ctx context.Context) (int, error)
}

// OpsConfig holds the dependencies of OpsHandler.
type OpsConfig struct {
	Version   string
	BuildTime string
	Checks    []Check
	Counters  []Counter

	// Registry reports circuit-breaker health of upstream providers (optional).
	Registry *resilience.Registry

	// MapsConfigured is false when no map provider key is set; the service
	// still runs, with map features answering 503.
	MapsConfigured bool
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. It answers 503 while any
// dependency check fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems := h.runChecks(r.Context())

	health := models.Health{Status: models.HealthStatusOK, Time: models.Timestamp(h.now())}
	details := make(map[string]interface{}, len(subsystems))
	for _, s := range subsystems {
		details[s.Name] = s.Status
		if s.Status == models.HealthStatusFail {
			health.Status = models.HealthStatusFail
		}
	}
	if len(details) > 0 {
		health.Details = details
	}

	status := http.StatusOK
	if health.Status == models.HealthStatusFail {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	subsystems := h.runChecks(r.Context())

	maps := models.SubsystemStatus{Name: "maps", Status: models.HealthStatusOK}
	if !h.cfg.MapsConfigured {
		maps.Status = models.HealthStatusDegraded
		maps.Detail = "map provider not configured: set MAPS_API_KEY"
	}
	subsystems = append(subsystems, maps)

	providers := h.providerStatus()

	overall := models.HealthStatusOK
	for _, s := range subsystems {
		overall = worst(overall, s.Status)
	}
	for _, p := range providers {
		// A failing provider degrades the service but does not take it down.
		if p.Status != models.HealthStatusOK {
			overall = worst(overall, models.HealthStatusDegraded)
		}
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:     overall,
		Time:       models.Timestamp(h.now()),
		Subsystems: subsystems,
		Providers:  providers,
		Counts:     h.counts(r.Context()),
	})
}

// counts skips counters that fail; the checks already report broken stores.
func (h *OpsHandler) counts(ctx context.Context) map[string]int {
	if len(h.cfg.Counters) == 0 {
		return nil
	}
	out := make(map[string]int, len(h.cfg.Counters))
	for _, c := range h.cfg.Counters {
		countCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		n, err := c.Value(countCtx)
		cancel()
		if err == nil {
			out[c.Name] = n
		}
	}
	return out
}

func (h *OpsHandler) runChecks(ctx context.Context) []models.SubsystemStatus {
	out := make([]models.SubsystemStatus, 0, len(h.cfg.Checks))
	for _, c := range h.cfg.Checks {
		checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		err := c.Probe(checkCtx)
		cancel()

		s := models.SubsystemStatus{Name: c.Name, Status: models.HealthStatusOK}
		if err != nil {
			s.Status = models.HealthStatusFail
			s.Detail = err.Error()
		}
		out = append(out, s)
	}
	return out
}

func (h *OpsHandler) providerStatus() []models.ProviderStatus {
	if h.cfg.Registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.cfg.Registry.Providers()
	out := make([]models.ProviderStatus, 0, len(all))
	for _, ph := range all {
		ps := models.ProviderStatus{
			Provider:     ph.Name,
			Status:       models.HealthStatus(ph.Status()),
			CircuitState: ph.State.String(),
			Message:      ph.LastError,
		}
		if ph.LastSuccessAt != nil {
			ts := models.Timestamp(*ph.LastSuccessAt)
			ps.LastSuccessAt = &ts
		}
		if ph.LastFailureAt != nil {
			ts := models.Timestamp(*ph.LastFailureAt)
			ps.LastFailureAt = &ts
		}
		out = append(out, ps)
	}
	return out
}

var severity = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	if severity[b] > severity[a] {
		return b
	}
	return a
}
