package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDigestStoreContract runs a suite of tests to verify that a DigestStore implementation
// adheres to the defined interface contract.
func RunDigestStoreContract(t *testing.T, store DigestStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Append and Load", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, runID, 1))
		require.NoError(t, store.Append(ctx, runID, 0xdeadbeefcafef00d))
		require.NoError(t, store.Append(ctx, runID, 1))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, []uint64{1, 0xdeadbeefcafef00d, 1}, loaded)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, runID))

		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete Non-Existent", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "non-existent-"+runID))
	})
}
