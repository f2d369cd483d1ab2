package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a dependency is failing but ranking still works.
	Degraded Status = "degraded"
	// Unhealthy indicates the engine itself is failing.
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

// Component names reported in Report.Checks.
const (
	ComponentEngine = "engine"
	ComponentCache  = "cache"
	ComponentGLPI   = "glpi"
)

const defaultCheckTimeout = 5 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine  EngineChecker
	db      DBPinger
	tickets TicketSourceChecker
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Service. db and tickets can be nil when not configured.
func New(engine EngineChecker, db DBPinger, tickets TicketSourceChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, db: db, tickets: tickets, timeout: defaultCheckTimeout, logger: logger}
}

// WithTimeout bounds each individual check.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs all configured checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]func(context.Context) error{
		ComponentEngine: s.engine.SelfCheck,
	}
	if s.db != nil {
		checks[ComponentCache] = s.db.Ping
	}
	if s.tickets != nil {
		checks[ComponentGLPI] = s.tickets.HealthCheck
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := CheckOK
			if err := check(cctx); err != nil {
				s.logger.Warn("health check failed", zap.String("component", name), zap.Error(err))
				res = CheckError
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := Healthy
	for name, v := range results {
		if v != CheckError {
			continue
		}
		if name == ComponentEngine {
			status = Unhealthy
			break
		}
		status = Degraded
	}

	return Report{Status: status, Checks: results}
}
