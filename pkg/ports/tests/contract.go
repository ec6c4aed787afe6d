package tests

import (
	"sort"
	"testing"

	"github.com/aretw0/posegraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GraphLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.GraphLoader.
func GraphLoaderContractTest(t *testing.T, loader ports.GraphLoader, setupData map[string][]byte) {
	t.Helper()

	t.Run("GetNode_Success", func(t *testing.T) {
		for id, expectedContent := range setupData {
			content, err := loader.GetNode(id)
			require.NoError(t, err, "getting node %s", id)
			assert.Equal(t, string(expectedContent), string(content), "content mismatch for %s", id)
		}
	})

	t.Run("GetNode_NotFound", func(t *testing.T) {
		_, err := loader.GetNode("non-existent-node")
		assert.Error(t, err)
	})

	// Graph compilation iterates ListNodes, so ordering must be stable.
	t.Run("ListNodes_Sorted", func(t *testing.T) {
		nodes, err := loader.ListNodes()
		require.NoError(t, err)
		require.Len(t, nodes, len(setupData))

		assert.True(t, sort.StringsAreSorted(nodes), "ListNodes must be sorted: %v", nodes)
		for id := range setupData {
			assert.Contains(t, nodes, id)
		}
	})
}
