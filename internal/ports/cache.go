package ports

import (
	"context"
	"time"
)

// Cache defines a key-value capability for usecases. Entries may carry a
// TTL; expired entries behave as absent. Adapters may be backed by SQLite
// or another store.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear drops every entry. Used when a write invalidates results that
	// may span several keys.
	Clear(ctx context.Context) error
}
