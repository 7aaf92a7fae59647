package obsoper

import (
	"context"

	healthuc "github.com/kailas-cloud/obsoper/internal/usecase/health"
)

// HealthStatus is the aggregated health of the storage and search layers.
type HealthStatus struct {
	Status string            // "ok", "degraded" or "error"
	Checks map[string]string // "database", "search": "ok" or "error"
}

// OK reports whether every component passed.
func (h HealthStatus) OK() bool { return h.Status == string(healthuc.Healthy) }

// Health runs a database ping and a probe lookup.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
