package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/posegraph"
	"github.com/stretchr/testify/assert"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(func(string) (*posegraph.Engine, error) {
		return nil, fmt.Errorf("no engines here")
	})
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("actor-%d", i)
		_ = mgr.Spawn(ctx, id)
		_ = mgr.With(ctx, id, func(context.Context, *posegraph.Engine) error { return nil })
		_ = mgr.Despawn(ctx, id)
	}

	assert.Empty(t, mgr.locks, "lock entries must be released")
	assert.Empty(t, mgr.actors)
}
