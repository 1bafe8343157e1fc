// Package health reports the availability of the development backend.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates the store answers.
	Healthy Status = "ok"
	// Unhealthy indicates the store does not answer.
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
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
	Err    error                  `json:"-"`
}

// Service coordinates health checks.
type Service struct {
	db DBPinger
}

// New creates a Service.
func New(db DBPinger) *Service {
	return &Service{db: db}
}

// Check pings the store.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Checks: map[string]CheckResult{"database": CheckOK}}
	if err := s.db.Ping(ctx); err != nil {
		r.Status = Unhealthy
		r.Checks["database"] = CheckError
		r.Err = err
	}
	return r
}
