package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSquashesCoverLegacyActivations asserts every name a genome can mutate
// NodeGene.Activation onto resolves to a real core squash, directly or
// through the same alias ga.legacyToSquash applies, so Phenotype never
// silently drops a node's evolved activation.
func TestSquashesCoverLegacyActivations(t *testing.T) {
	aliases := map[string]string{"sigmoid": "logistic", "abs": "absolute"}
	for name := range ActivationFunctions {
		squashName := name
		if alias, ok := aliases[name]; ok {
			squashName = alias // resolved by ga.legacyToSquash, not present in Squashes directly
		}
		_, err := GetSquash(squashName)
		assert.NoErrorf(t, err, "legacy activation %q has no matching core squash", name)
	}
}

func TestGetSquashUnknown(t *testing.T) {
	_, err := GetSquash("not-a-real-activation")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownActivation)
}

func TestSquashDerivativesNumerically(t *testing.T) {
	const h = 1e-6
	cases := []string{"sine", "cosine", "inv", "log", "exp", "square", "cube"}
	points := []float64{-2.3, -0.5, 0.3, 1.7, 4.0}

	for _, name := range cases {
		sq, err := GetSquash(name)
		require.NoError(t, err)
		for _, x := range points {
			if name == "log" && x <= 0 {
				continue
			}
			if name == "inv" && x == 0 {
				continue
			}
			y := sq.Fn(x)
			numeric := (sq.Fn(x+h) - sq.Fn(x-h)) / (2 * h)
			analytic := sq.Deriv(x, y)
			assert.InDeltaf(t, numeric, analytic, 1e-3, "%s deriv mismatch at x=%.2f", name, x)
		}
	}
}

func TestSquashHatShape(t *testing.T) {
	sq, err := GetSquash("hat")
	require.NoError(t, err)
	assert.Equal(t, 1.0, sq.Fn(0))
	assert.Equal(t, 0.0, sq.Fn(1))
	assert.Equal(t, 0.0, sq.Fn(-1))
	assert.Equal(t, 0.0, sq.Fn(5))
}

func TestSquashExpClamped(t *testing.T) {
	sq, err := GetSquash("exp")
	require.NoError(t, err)
	assert.False(t, math.IsInf(sq.Fn(1e6), 1))
}
