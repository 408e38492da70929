package port

import "context"

// HealthChecker reports reachability of an external dependency.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}
