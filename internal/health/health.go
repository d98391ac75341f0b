// Package health provides health check implementations for the pattern
// engine's external dependencies, consumed by the host application's health
// endpoint.
package health

import "context"

// Checker is implemented by every dependency health check.
type Checker interface {
	// HealthCheck returns nil when the dependency is reachable.
	HealthCheck(ctx context.Context) error
}
