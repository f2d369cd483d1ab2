package health

import "context"

// DBPinger checks cache database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// TicketSourceChecker checks ticket source availability.
type TicketSourceChecker interface {
	HealthCheck(ctx context.Context) error
}

// EngineChecker runs the similarity engine on a fixed sample document.
type EngineChecker interface {
	SelfCheck(ctx context.Context) error
}
