package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStructuralMutationMarksCachesDirtyOnce confirms a single structural
// mutation (Connect) dirties both the topological-order and slab caches
// and bumps structGen exactly once, and that a subsequent forward pass
// clears both dirty flags without bumping structGen again.
func TestStructuralMutationMarksCachesDirtyOnce(t *testing.T) {
	net, err := NewNetwork(2, 1)
	require.NoError(t, err)
	net.Acyclic = true
	net.ensureForwardCaches()

	genBefore := net.structGen
	_, err = net.Connect(net.Input(0), net.Output(0), 0.4)
	require.NoError(t, err)

	assert.True(t, net.topoDirty)
	assert.True(t, net.slabDirty)
	assert.Equal(t, genBefore+1, net.structGen)

	_, err = net.Activate([]float64{1, 1})
	require.NoError(t, err)

	assert.False(t, net.topoDirty)
	assert.False(t, net.slabDirty)
	assert.Equal(t, genBefore+1, net.structGen, "a forward pass must not itself bump structGen")
}

func TestAddNodeAlsoDirtiesCaches(t *testing.T) {
	net, err := NewNetwork(1, 1)
	require.NoError(t, err)
	net.ensureForwardCaches()

	_, err = net.AddNode(Hidden, "tanh")
	require.NoError(t, err)
	assert.True(t, net.topoDirty)
	assert.True(t, net.slabDirty)
}

// TestFastSlabEquivalenceOnLargerRandomNetwork extends the basic fast-slab
// parity check to a larger random acyclic network across many random
// input vectors.
func TestFastSlabEquivalenceOnLargerRandomNetwork(t *testing.T) {
	net, err := NewNetwork(5, 3)
	require.NoError(t, err)
	net.Acyclic = true

	hidden := make([]*Node, 0, 30)
	for i := 0; i < 30; i++ {
		h, err := net.AddNode(Hidden, "tanh")
		require.NoError(t, err)
		hidden = append(hidden, h)
	}
	for i := 0; i < 5; i++ {
		for _, h := range hidden {
			_, err := net.Connect(net.Input(i), h, 0.1*float64(i+1))
			require.NoError(t, err)
		}
	}
	for o := 0; o < 3; o++ {
		for _, h := range hidden {
			_, err := net.Connect(h, net.Output(o), -0.05*float64(o+1))
			require.NoError(t, err)
		}
	}

	for trial := 0; trial < 20; trial++ {
		inputs := make([]float64, 5)
		for i := range inputs {
			inputs[i] = float64(trial) * 0.1
		}
		net.ensureForwardCaches()
		generic, err := net.genericActivate(inputs, false)
		require.NoError(t, err)
		net.ClearState()
		net.ensureForwardCaches()
		fast, err := net.fastSlabActivate(inputs)
		require.NoError(t, err)
		assert.InDeltaSlicef(t, generic, fast, 1e-9, "trial %d diverged between generic and fast-slab paths", trial)
		net.ClearState()
	}
}
