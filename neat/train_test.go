package neat

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLinearNet(t *testing.T) *Network {
	t.Helper()
	net, err := NewNetwork(1, 1)
	require.NoError(t, err)
	out := net.Output(0)
	require.NoError(t, out.SetSquash("identity"))
	_, err = net.Connect(net.Input(0), out, 0.5)
	require.NoError(t, err)
	return net
}

// TestTrainLinearFitConvergesTowardTargetSlope exercises the 1-1 plain-SGD
// scenario: a linear net fitting y = 2x should push the connection weight
// toward 2.0 and the mean-squared error toward 0.
func TestTrainLinearFitConvergesTowardTargetSlope(t *testing.T) {
	net := buildLinearNet(t)
	dataset := []Sample{
		{Input: []float64{1}, Target: []float64{2}},
		{Input: []float64{2}, Target: []float64{4}},
		{Input: []float64{-1}, Target: []float64{-2}},
		{Input: []float64{0.5}, Target: []float64{1}},
	}

	result, err := net.Train(dataset, TrainOptions{
		Iterations:  200,
		Rate:        0.1,
		Cost:        CostMSE,
		BatchSize:   1,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, result.Error, 1e-3)

	weight := net.Output(0).In[0].Weight
	assert.InDelta(t, 2.0, weight, 0.02)
}

type captureLogger struct{ messages []string }

func (c *captureLogger) Warnf(format string, args ...interface{}) {
	c.messages = append(c.messages, fmt.Sprintf(format, args...))
}

// TestTrainSetWarnsAndSkipsDimensionMismatchedSample confirms TrainSet's
// permissive per-sample handling: unlike Train's all-or-nothing
// pre-validation, a single malformed sample is logged through the
// installed Logger and skipped, and training proceeds over the rest.
func TestTrainSetWarnsAndSkipsDimensionMismatchedSample(t *testing.T) {
	net := buildLinearNet(t)
	logger := &captureLogger{}
	net.SetLogger(logger)

	dataset := []Sample{
		{Input: []float64{1}, Target: []float64{2}},
		{Input: []float64{1, 2}, Target: []float64{2}}, // mismatched input length
	}
	_, err := net.TrainSet(dataset, TrainSetOptions{BatchSize: 2, Rate: 0.1, Cost: CostMSE})
	require.NoError(t, err)
	require.Len(t, logger.messages, 1)
	assert.Contains(t, logger.messages[0], "sample 1")
}

func TestTrainRejectsDimensionMismatchedSamples(t *testing.T) {
	net := buildLinearNet(t)
	_, err := net.Train([]Sample{{Input: []float64{1, 2}, Target: []float64{2}}}, TrainOptions{Iterations: 1, Cost: CostMSE})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTrainRejectsEmptyDataset(t *testing.T) {
	net := buildLinearNet(t)
	_, err := net.Train(nil, TrainOptions{Iterations: 1, Cost: CostMSE})
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestTrainRejectsNoStopCondition(t *testing.T) {
	net := buildLinearNet(t)
	_, err := net.Train([]Sample{{Input: []float64{1}, Target: []float64{2}}}, TrainOptions{Cost: CostMSE})
	assert.ErrorIs(t, err, ErrNoStopCondition)
}

// TestForcedMixedPrecisionOverflowHalvesLossScaleAndZeroesGradients covers
// the mixed-precision overflow-recovery scenario: a forced overflow on the
// very first optimizer step should halve the loss scale, zero every
// accumulated gradient slot, and record the overflow step.
func TestForcedMixedPrecisionOverflowHalvesLossScaleAndZeroesGradients(t *testing.T) {
	net, err := NewNetwork(2, 1)
	require.NoError(t, err)
	_, err = net.Connect(net.Input(0), net.Output(0), 0.3)
	require.NoError(t, err)
	_, err = net.Connect(net.Input(1), net.Output(0), -0.3)
	require.NoError(t, err)

	net.ConfigureTraining(nil, &MixedPrecisionConfig{Enabled: true, LossScale: 1024})
	net.ForceNextOverflow()

	dataset := []Sample{
		{Input: []float64{1, -1}, Target: []float64{1}},
		{Input: []float64{0.5, 0.5}, Target: []float64{0}},
	}

	_, err = net.TrainSet(dataset, TrainSetOptions{
		BatchSize: len(dataset),
		Rate:      0.1,
		Cost:      CostMSE,
		Optimizer: &OptimizerConfig{Kind: OptAdam},
	})
	require.NoError(t, err)

	assert.Equal(t, 512.0, net.mixedPrecision.LossScale)
	assert.Equal(t, 1, net.lastOverflowStep)
	assert.Equal(t, 0.0, net.lastGradNorm)
	for _, c := range net.Output(0).In {
		assert.Equal(t, 0.0, c.TotalDeltaWeight)
	}
}

func TestMixedPrecisionScalesUpAfterEnoughGoodSteps(t *testing.T) {
	net, err := NewNetwork(1, 1)
	require.NoError(t, err)
	_, err = net.Connect(net.Input(0), net.Output(0), 0.1)
	require.NoError(t, err)

	net.ConfigureTraining(nil, &MixedPrecisionConfig{Enabled: true, LossScale: 8, IncreaseEvery: 2, MaxScale: 1024})

	dataset := []Sample{{Input: []float64{1}, Target: []float64{1}}}
	for i := 0; i < 3; i++ {
		_, err = net.TrainSet(dataset, TrainSetOptions{
			BatchSize: 1,
			Rate:      0.01,
			Cost:      CostMSE,
			Optimizer: &OptimizerConfig{Kind: OptAdam},
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 16.0, net.mixedPrecision.LossScale)
}

func TestActivateTrainingIsDeterministicWithoutDropout(t *testing.T) {
	rand.Seed(1)
	net := buildLinearNet(t)
	a, err := net.ActivateTraining([]float64{1.0})
	require.NoError(t, err)
	b, err := net.ActivateTraining([]float64{1.0})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
