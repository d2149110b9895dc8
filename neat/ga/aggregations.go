package ga

import (
	"fmt"
	"math"

	"github.com/glialnet/neat-go/neat"
)

// AggregationType defines the type for aggregation functions applied to a
// node's incoming values before squashing (NodeGene.Aggregation attribute).
type AggregationType func(inputs []float64) float64

// AggregationFunctions maps function names to the actual aggregation functions.
var AggregationFunctions = map[string]AggregationType{
	"sum":     AggregateSum,
	"product": AggregateProduct,
	"min":     AggregateMin,
	"max":     AggregateMax,
	"mean":    AggregateMean,
	"median":  AggregateMedian,
	"average": AggregateMean, // Alias for mean
}

// GetAggregation retrieves an aggregation function by name.
func GetAggregation(name string) (AggregationType, error) {
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

// AggregateSum calculates the sum of the inputs.
func AggregateSum(inputs []float64) float64 {
	return neat.Sum(inputs)
}

// AggregateProduct calculates the product of the inputs.
func AggregateProduct(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	product := 1.0
	for _, v := range inputs {
		product *= v
	}
	return product
}

// AggregateMin finds the minimum value among the inputs.
func AggregateMin(inputs []float64) float64 {
	return neat.MinFloat(inputs)
}

// AggregateMax finds the maximum value among the inputs.
func AggregateMax(inputs []float64) float64 {
	return neat.MaxFloat(inputs)
}

// AggregateMean calculates the average of the inputs.
func AggregateMean(inputs []float64) float64 {
	return neat.Mean(inputs)
}

// AggregateMedian calculates the median of the inputs.
func AggregateMedian(inputs []float64) float64 {
	return neat.Median(inputs)
}

// AggregateMaxAbs returns the input with the largest magnitude.
func AggregateMaxAbs(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	maxAbsVal := math.Abs(inputs[0])
	for i := 1; i < len(inputs); i++ {
		absVal := math.Abs(inputs[i])
		if absVal > maxAbsVal {
			maxAbsVal = absVal
		}
	}
	return maxAbsVal
}
