// internal/core/ports/database.go
package ports

import "context"

// Database is the slice of the connection pool that health checks need
type Database interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]any
}
