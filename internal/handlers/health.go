package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/loomline/api/internal/domain"
	"github.com/loomline/api/internal/services"
)

// HealthHandlers answers liveness and readiness probes.
type HealthHandlers struct {
	build  services.BuildInfo
	system services.SystemService
	clock  func() time.Time
}

// HealthOption customises HealthHandlers construction.
type HealthOption func(*HealthHandlers)

// WithHealthBuildInfo attaches build metadata reported by both probes.
func WithHealthBuildInfo(info services.BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = info
	}
}

// WithHealthSystemService wires the dependency health aggregator behind /readyz.
func WithHealthSystemService(system services.SystemService) HealthOption {
	return func(h *HealthHandlers) {
		h.system = system
	}
}

// WithHealthClock overrides the time source, primarily for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers constructs probe handlers. Without a system service,
// /readyz reports ok unconditionally.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.build.StartedAt.IsZero() {
		h.build.StartedAt = h.clock().UTC()
	}
	return h
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":    "ok",
		"uptime":    h.clock().UTC().Sub(h.build.StartedAt).String(),
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	}
	h.decorateBuild(payload)
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz reports whether downstream dependencies are reachable. A degraded or
// failing report yields 503 so load balancers stop routing traffic here.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.system == nil {
		payload := map[string]any{"status": "ok"}
		h.decorateBuild(payload)
		writeJSONResponse(w, http.StatusOK, payload)
		return
	}

	report, err := h.system.CheckReadiness(r.Context())
	if err != nil {
		payload := map[string]any{
			"status":  string(domain.HealthStatusError),
			"details": []string{fmt.Sprintf("readiness: %v", err)},
		}
		h.decorateBuild(payload)
		writeJSONResponse(w, http.StatusServiceUnavailable, payload)
		return
	}

	status := http.StatusOK
	if report.Status != domain.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	var details []string
	for name, check := range report.Checks {
		checks[name] = string(check.Status)
		if check.Error != "" {
			details = append(details, fmt.Sprintf("%s: %s", name, check.Error))
		}
	}
	sort.Strings(details)

	payload := map[string]any{
		"status": string(report.Status),
		"checks": checks,
	}
	if len(details) > 0 {
		payload["details"] = details
	}
	h.decorateBuild(payload)
	writeJSONResponse(w, status, payload)
}

func (h *HealthHandlers) decorateBuild(payload map[string]any) {
	if h.build.Version != "" {
		payload["version"] = h.build.Version
	}
	if h.build.CommitSHA != "" {
		payload["commitSha"] = h.build.CommitSHA
	}
	if h.build.Environment != "" {
		payload["environment"] = h.build.Environment
	}
}
