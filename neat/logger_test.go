package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLoggerNilInstallsNopLogger(t *testing.T) {
	net, err := NewNetwork(1, 1)
	require.NoError(t, err)
	net.SetLogger(nil)

	assert.NotPanics(t, func() {
		net.logger.Warnf("unreachable: %d", 1)
	})
}
