package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/posegraph/pkg/adapters/file"
	"github.com/aretw0/posegraph/pkg/adapters/redis"
	"github.com/aretw0/posegraph/pkg/ports"
)

// StoreOptions selects the digest store backend.
type StoreOptions struct {
	// Backend is "file" (default) or "redis".
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// RunStore is a digest store that can enumerate its runs.
type RunStore interface {
	ports.DigestStore
	List(ctx context.Context) ([]string, error)
}

// OpenStore opens the configured backend. The returned function releases it.
func OpenStore(o StoreOptions) (RunStore, func() error, error) {
	switch o.Backend {
	case "", "file":
		return file.New(o.Path), func() error { return nil }, nil
	case "redis":
		addr := o.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		var opts []redis.Option
		if o.TTL > 0 {
			opts = append(opts, redis.WithTTL(o.TTL))
		}
		s := redis.New(addr, o.RedisPassword, o.RedisDB, opts...)
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q (want file or redis)", o.Backend)
}
