package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all checks pass.
	Healthy Status = "ok"
	// Degraded indicates at least one failing check.
	Degraded Status = "degraded"
)

// CheckResult represents an individual check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	schema SchemaPinger
}

// New creates a Service.
func New(schema SchemaPinger) *Service {
	return &Service{schema: schema}
}

// Check runs all health checks.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{"schema": CheckOK}
	if err := s.schema.Ping(ctx); err != nil {
		checks["schema"] = CheckError
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
		}
	}
	return Report{Status: status, Checks: checks}
}
