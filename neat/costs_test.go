package neat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMSEKnownValue(t *testing.T) {
	v, err := MSE([]float64{1, 0}, []float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-9)
}

func TestMAEKnownValue(t *testing.T) {
	v, err := MAE([]float64{1, 1}, []float64{0, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, v, 1e-9)
}

func TestCostFunctionsRejectDimensionMismatch(t *testing.T) {
	for kind, fn := range CostFunctions {
		_, err := fn([]float64{1}, []float64{1, 2})
		assert.ErrorIsf(t, err, ErrDimensionMismatch, "%s did not reject mismatched dimensions", kind)
	}
}

func TestCostFunctionsRejectEmptyInputs(t *testing.T) {
	_, err := MSE(nil, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestBinaryMisclassificationCountsWrongPredictions(t *testing.T) {
	v, err := BinaryMisclassification([]float64{1, 0, 1}, []float64{0.9, 0.1, 0.2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, v, 1e-9)
}

func TestCrossEntropyPerfectPredictionNearZero(t *testing.T) {
	v, err := CrossEntropy([]float64{1, 0}, []float64{1 - 1e-12, 1e-12})
	require.NoError(t, err)
	assert.Less(t, v, 1e-6)
}

func TestSoftmaxCrossEntropyOnOneHot(t *testing.T) {
	v, err := SoftmaxCrossEntropy([]float64{1, 0, 0}, []float64{5, 0, 0})
	require.NoError(t, err)
	assert.Greater(t, v, 0.0)
	assert.Less(t, v, 0.1)
}

func TestHingeZeroWhenMarginSatisfied(t *testing.T) {
	v, err := Hinge([]float64{1, -1}, []float64{2, -2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestGetCostResolvesKnownKindsAndRejectsUnknown(t *testing.T) {
	fn, err := GetCost(CostMSE)
	require.NoError(t, err)
	require.NotNil(t, fn)

	_, err = GetCost(CostKind("not-a-real-cost"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCost))
}
