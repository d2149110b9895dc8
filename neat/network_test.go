package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIdentityNet(t *testing.T) *Network {
	t.Helper()
	net, err := NewNetwork(2, 1)
	require.NoError(t, err)
	out := net.Output(0)
	require.NoError(t, out.SetSquash("identity"))
	_, err = net.Connect(net.Input(0), out, 1.0)
	require.NoError(t, err)
	_, err = net.Connect(net.Input(1), out, 1.0)
	require.NoError(t, err)
	return net
}

func TestActivateOutputLengthMatchesOutputCount(t *testing.T) {
	net := buildIdentityNet(t)
	out, err := net.Activate([]float64{0.4, 0.6})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0, out[0], 1e-9)
}

func TestActivateWrongInputLengthErrors(t *testing.T) {
	net := buildIdentityNet(t)
	_, err := net.Activate([]float64{1.0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

// TestConnectRejectsCycleWhenAcyclic confirms the "must not throw" contract:
// a connection that would introduce a cycle in an acyclic network is
// silently refused, i.e. Connect returns a nil connection and a nil error
// rather than an error, and no new edge is recorded.
func TestConnectRejectsCycleWhenAcyclic(t *testing.T) {
	net, err := NewNetwork(1, 1)
	require.NoError(t, err)
	net.Acyclic = true

	h, err := net.AddNode(Hidden, "tanh")
	require.NoError(t, err)

	_, err = net.Connect(net.Input(0), h)
	require.NoError(t, err)
	_, err = net.Connect(h, net.Output(0))
	require.NoError(t, err)

	connsBefore := len(net.connections)
	conn, err := net.Connect(net.Output(0), h)
	require.NoError(t, err)
	assert.Nil(t, conn)
	assert.Len(t, net.connections, connsBefore, "a silently-refused cyclic edge must not be recorded")
}

func TestConnectRejectsDuplicateParallelEdge(t *testing.T) {
	net := buildIdentityNet(t)
	_, err := net.Connect(net.Input(0), net.Output(0), 0.5)
	assert.ErrorIs(t, err, ErrConnectionExists)
}

func TestConnectionBetweenFindsExistingEdgeAndReportsMissingOnes(t *testing.T) {
	net := buildIdentityNet(t)
	conn, err := net.ConnectionBetween(net.Input(0), net.Output(0))
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, net.Input(0), conn.From)

	h, err := net.AddNode(Hidden, "tanh")
	require.NoError(t, err)
	_, err = net.ConnectionBetween(net.Input(1), h)
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestClearStateIsIdempotentAcrossActivations(t *testing.T) {
	net := buildIdentityNet(t)
	a, err := net.Activate([]float64{0.2, 0.3})
	require.NoError(t, err)
	net.ClearState()
	b, err := net.Activate([]float64{0.2, 0.3})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestJSONRoundTripPreservesActivation(t *testing.T) {
	net := buildIdentityNet(t)
	data, err := net.ToJSON()
	require.NoError(t, err)

	loaded, err := NetworkFromJSON(data)
	require.NoError(t, err)

	want, err := net.Activate([]float64{0.1, 0.9})
	require.NoError(t, err)
	got, err := loaded.Activate([]float64{0.1, 0.9})
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-9)
}

func TestFastSlabMatchesGenericForAcyclicNetwork(t *testing.T) {
	net, err := NewNetwork(3, 2)
	require.NoError(t, err)
	net.Acyclic = true

	h1, err := net.AddNode(Hidden, "tanh")
	require.NoError(t, err)
	h2, err := net.AddNode(Hidden, "relu")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := net.Connect(net.Input(i), h1, 0.3*float64(i+1))
		require.NoError(t, err)
		_, err = net.Connect(net.Input(i), h2, -0.2*float64(i+1))
		require.NoError(t, err)
	}
	_, err = net.Connect(h1, net.Output(0), 0.5)
	require.NoError(t, err)
	_, err = net.Connect(h2, net.Output(1), -0.5)
	require.NoError(t, err)

	inputs := []float64{0.1, -0.4, 0.7}
	net.ensureForwardCaches()
	generic, err := net.genericActivate(inputs, false)
	require.NoError(t, err)
	net.ClearState()
	net.ensureForwardCaches()
	fast, err := net.fastSlabActivate(inputs)
	require.NoError(t, err)
	assert.InDeltaSlice(t, generic, fast, 1e-9)
}
