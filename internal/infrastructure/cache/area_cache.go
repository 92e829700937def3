package cache

import (
	"context"
	"time"
)

// DefaultAreaTTL bounds how long a courier area directory is served from
// cache before a fresh fetch
const DefaultAreaTTL = 6 * time.Hour

// AreaCache stores serialized courier area directories. Implementations
// must treat a miss and an expired entry the same way.
type AreaCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Close() error
}
