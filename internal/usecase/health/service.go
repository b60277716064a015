package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckPending means no run has finished yet.
	CheckPending CheckResult = "pending"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	// StreamLength is the mirror stream's entry count, nil when unknown.
	StreamLength *int64
}

// Service coordinates health checks.
type Service struct {
	redis     RedisChecker
	streamKey string
	runs      RunReporter
}

// New creates a Service. redis can be nil when the mirror is disabled.
func New(redis RedisChecker, streamKey string, runs RunReporter) *Service {
	return &Service{redis: redis, streamKey: streamKey, runs: runs}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var streamLen *int64

	if s.redis != nil {
		checks["redis"] = CheckError
		if err := s.redis.Ping(ctx); err == nil {
			if n, err := s.redis.XLen(ctx, s.streamKey); err == nil {
				checks["redis"] = CheckOK
				streamLen = &n
			}
		}
	}

	switch last := s.runs.Last(); {
	case last == nil:
		checks["last_run"] = CheckPending
	case last.Err != nil:
		checks["last_run"] = CheckError
	default:
		checks["last_run"] = CheckOK
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, StreamLength: streamLen}
}
