package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTrainEarlyStopsOnPlateauBeforeExhaustingIterations exercises the
// early-stop/smoothing scenario: a dataset degenerate enough to plateau
// almost immediately should stop well before the iteration budget, once
// EarlyStopPatience consecutive non-improving iterations have elapsed.
func TestTrainEarlyStopsOnPlateauBeforeExhaustingIterations(t *testing.T) {
	net, err := NewNetwork(1, 1)
	require.NoError(t, err)
	out := net.Output(0)
	require.NoError(t, out.SetSquash("identity"))
	_, err = net.Connect(net.Input(0), out, 0.0)
	require.NoError(t, err)

	// Target always equals input; with weight pinned via a zero rate the
	// error can never improve, so early stopping must trigger.
	dataset := []Sample{{Input: []float64{1}, Target: []float64{1}}}

	result, err := net.Train(dataset, TrainOptions{
		Iterations:          200,
		Rate:                0.0,
		Cost:                CostMSE,
		MovingAverageWindow: 7,
		MovingAverageType:   SmoothMedian,
		EarlyStopPatience:   5,
		EarlyStopMinDelta:   1e-9,
	})
	require.NoError(t, err)
	assert.Less(t, result.Iterations, 200)
}

func TestTrainRunsFullIterationBudgetWithoutEarlyStopConfigured(t *testing.T) {
	net := buildLinearNet(t)
	dataset := []Sample{{Input: []float64{1}, Target: []float64{2}}}

	result, err := net.Train(dataset, TrainOptions{
		Iterations: 10,
		Rate:       0.01,
		Cost:       CostMSE,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, result.Iterations)
}

func TestTrainStopsAtTargetError(t *testing.T) {
	net := buildLinearNet(t)
	dataset := []Sample{
		{Input: []float64{1}, Target: []float64{2}},
		{Input: []float64{2}, Target: []float64{4}},
	}

	result, err := net.Train(dataset, TrainOptions{
		Iterations:     5000,
		TargetError:    0.01,
		HasTargetError: true,
		Rate:           0.1,
		Cost:           CostMSE,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, result.Error, 0.01)
	assert.Less(t, result.Iterations, 5000)
}

func TestTrainMetricsHookPanicIsSwallowed(t *testing.T) {
	net := buildLinearNet(t)
	dataset := []Sample{{Input: []float64{1}, Target: []float64{2}}}

	assert.NotPanics(t, func() {
		_, err := net.Train(dataset, TrainOptions{
			Iterations: 3,
			Rate:       0.1,
			Cost:       CostMSE,
			MetricsHook: func(TrainMetrics) {
				panic("hook blew up")
			},
		})
		require.NoError(t, err)
	})
}

func TestTrainScheduleHookFiresOnConfiguredCadence(t *testing.T) {
	net := buildLinearNet(t)
	dataset := []Sample{{Input: []float64{1}, Target: []float64{2}}}

	var fired []int
	_, err := net.Train(dataset, TrainOptions{
		Iterations:    6,
		Rate:          0.1,
		Cost:          CostMSE,
		ScheduleEvery: 2,
		ScheduleHook:  func(iter int) { fired = append(fired, iter) },
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, fired)
}
