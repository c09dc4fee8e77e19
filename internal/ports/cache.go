package ports

import (
	"context"
	"time"

	"github.com/chatgrid/realtime-api/internal/domain/visitor"
)

// CacheRepository defines the interface for byte-oriented caching operations.
type CacheRepository interface {
	// Set stores a value with the given key and TTL. TTL 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key. Returns nil if the key doesn't exist
	// or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Returns true if the key was deleted.
	Delete(ctx context.Context, key string) (bool, error)

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

// VisitorRepository loads visitor aggregates from storage.
type VisitorRepository interface {
	// FindBySessionID returns the visitor aggregate owning the given session
	// id, with its full session history. Returns a not-found error when no
	// visitor owns the id.
	FindBySessionID(ctx context.Context, sessionID string) (*visitor.Visitor, error)

	// TouchSession bumps last_activity_at for an active session. Touching an
	// ended or unknown session is a no-op.
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
}
