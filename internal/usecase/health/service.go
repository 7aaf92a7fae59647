package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a failing non-critical component.
	Degraded Status = "degraded"
	// Unhealthy indicates the model store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	search    SearchChecker
}

// New creates a Service. search can be nil.
func New(db DBPinger, search SearchChecker) *Service {
	return &Service{db: db, search: search}
}

// Check runs health checks against all components. Models live in the
// database, so losing it makes the service unhealthy; a failing search
// probe only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	if s.search != nil {
		if err := s.search.HealthCheck(ctx); err != nil {
			checks["search"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["search"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
