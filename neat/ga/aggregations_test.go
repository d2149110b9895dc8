package ga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateFunctions(t *testing.T) {
	inputs := []float64{1.0, -2.0, 3.0, 4.0}

	assert.Equal(t, 6.0, AggregateSum(inputs))
	assert.Equal(t, -24.0, AggregateProduct(inputs))
	assert.Equal(t, -2.0, AggregateMin(inputs))
	assert.Equal(t, 4.0, AggregateMax(inputs))
	assert.InDelta(t, 1.5, AggregateMean(inputs), 1e-9)
	assert.InDelta(t, 2.0, AggregateMedian(inputs), 1e-9)
	assert.Equal(t, 4.0, AggregateMaxAbs(inputs))
}

func TestAggregateProductEmptyInputs(t *testing.T) {
	assert.Equal(t, 0.0, AggregateProduct(nil))
}

func TestGetAggregationResolvesAliasesAndRejectsUnknown(t *testing.T) {
	fn, err := GetAggregation("average")
	require.NoError(t, err)
	assert.Equal(t, AggregateMean([]float64{2, 4}), fn([]float64{2, 4}))

	_, err = GetAggregation("not-a-real-aggregation")
	assert.Error(t, err)
}
