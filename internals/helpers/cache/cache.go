// file: internals/helpers/cache/cache.go
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Key identifies one cached result. Params must be a canonical encoding of the
// filter (see ParamsKey) so equal filters share an entry.
type Key struct {
	Op     string
	UserID uuid.UUID
	Params string
}

func (k Key) String() string { return k.Op + "|" + k.UserID.String() + "|" + k.Params }

// Cache is the read-side result cache. Entries are scoped per user so a write
// for one tenant drops only that tenant's results.
type Cache interface {
	GetOrCompute(ctx context.Context, key Key, ttl time.Duration, fn func(context.Context) (any, error)) (any, error)
	Invalidate(userID uuid.UUID)
}

// Fetch is the typed wrapper call sites use.
func Fetch[T any](ctx context.Context, c Cache, key Key, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.GetOrCompute(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: entry %s holds %T", key, v)
	}
	return out, nil
}

// ParamsKey joins filter parts into a stable key fragment.
func ParamsKey(parts ...any) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = fmt.Sprint(p)
	}
	return strings.Join(out, "&")
}

// Noop never stores anything. Handy for tests and for disabling the cache.
type Noop struct{}

func (Noop) GetOrCompute(ctx context.Context, _ Key, _ time.Duration, fn func(context.Context) (any, error)) (any, error) {
	return fn(ctx)
}

func (Noop) Invalidate(uuid.UUID) {}
