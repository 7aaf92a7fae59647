package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SearchChecker checks that grid cells can be located.
type SearchChecker interface {
	HealthCheck(ctx context.Context) error
}
