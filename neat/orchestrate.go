package neat

import (
	"math"
	"time"
)

// TrainMetrics is the per-iteration telemetry passed to TrainOptions.MetricsHook.
type TrainMetrics struct {
	Iteration    int
	Error        float64
	PlateauError float64
	GradNorm     float64
}

// TrainResult is Train's return value.
type TrainResult struct {
	Error      float64
	Iterations int
	TimeMS     int64
}

// TrainOptions configures one call to Train, covering every key in §6's
// "Training options" table.
type TrainOptions struct {
	Iterations     int
	TargetError    float64
	HasTargetError bool

	Rate        float64
	Momentum    float64
	WeightDecay float64
	Optimizer   *OptimizerConfig

	Dropout               float64
	BatchSize             int
	AccumulationSteps     int
	AccumulationReduction string
	GradClip              *ClipConfig
	MixedPrecision        *MixedPrecisionConfig
	Cost                  CostKind

	MovingAverageWindow int
	MovingAverageType   SmoothingKind
	EMAAlpha            float64
	TrimmedRatio        float64

	PlateauWindow   int
	PlateauType     SmoothingKind
	PlateauEMAAlpha float64

	EarlyStopPatience int
	EarlyStopMinDelta float64

	// PruneHook, if set, is invoked once per iteration with the network's
	// global epoch counter, for an external collaborator's pruning
	// schedule; Train itself never prunes.
	PruneHook func(globalStep int)
	// MetricsHook, if set, is invoked once per iteration; a panic from it
	// is recovered and ignored ("swallowing exceptions" per §4.7).
	MetricsHook func(TrainMetrics)
	// CheckpointLast, if set, is called after every iteration.
	CheckpointLast func(net *Network) error
	// CheckpointBest, if set, is called whenever monitored_error improves
	// on the best value seen so far.
	CheckpointBest func(net *Network) error
	// ScheduleEvery/ScheduleHook fire ScheduleHook(iteration) every
	// ScheduleEvery iterations, when both are set.
	ScheduleEvery int
	ScheduleHook  func(iteration int)
}

func (opts TrainOptions) validate(datasetLen int) error {
	if datasetLen == 0 {
		return ErrEmptyDataset
	}
	if opts.Iterations <= 0 && !opts.HasTargetError {
		return ErrNoStopCondition
	}
	if opts.Dropout < 0 || opts.Dropout >= 1 {
		return ErrInvalidDropout
	}
	if opts.BatchSize > datasetLen {
		return ErrBatchTooLarge
	}
	if opts.AccumulationSteps != 0 && opts.AccumulationSteps < 1 {
		return ErrInvalidOption
	}
	if opts.Optimizer != nil {
		if err := opts.Optimizer.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Train runs the full training orchestrator (§4.7) over dataset: it
// repeatedly calls TrainSet, smooths the raw error for both the
// early-stopping and plateau-detection channels, fires the configured
// hooks, and applies early stopping before returning a summary.
func (net *Network) Train(dataset []Sample, opts TrainOptions) (TrainResult, error) {
	for _, s := range dataset {
		if len(s.Input) != net.InputCount || len(s.Target) != net.OutputCount {
			return TrainResult{}, ErrDimensionMismatch
		}
	}
	if err := opts.validate(len(dataset)); err != nil {
		return TrainResult{}, err
	}

	net.Dropout = opts.Dropout
	net.ConfigureTraining(opts.GradClip, opts.MixedPrecision)

	maWindow := opts.MovingAverageWindow
	if maWindow < 1 {
		maWindow = 1
	}
	plWindow := opts.PlateauWindow
	if plWindow < 1 {
		plWindow = maWindow
	}
	maType := opts.MovingAverageType
	if maType == "" {
		maType = SmoothSMA
	}
	plType := opts.PlateauType
	if plType == "" {
		plType = maType
	}

	errorSmoother := NewSmoother(maType, maWindow, opts.EMAAlpha, opts.TrimmedRatio)
	plateauSmoother := NewSmoother(plType, plWindow, opts.PlateauEMAAlpha, opts.TrimmedRatio)

	setOpts := TrainSetOptions{
		BatchSize:             opts.BatchSize,
		AccumulationSteps:     opts.AccumulationSteps,
		AccumulationReduction: opts.AccumulationReduction,
		Rate:                  opts.Rate,
		Momentum:              opts.Momentum,
		WeightDecay:           opts.WeightDecay,
		Cost:                  opts.Cost,
		Optimizer:             opts.Optimizer,
	}

	start := time.Now()
	best := math.Inf(1)
	noImprove := 0
	var monitoredError, plateauError float64
	performed := 0

	iterations := opts.Iterations
	if iterations <= 0 {
		iterations = 1 << 30 // effectively unbounded; target_error governs the stop
	}

	for iter := 1; iter <= iterations; iter++ {
		if opts.PruneHook != nil {
			opts.PruneHook(net.globalEpoch + iter)
		}

		rawError, err := net.TrainSet(dataset, setOpts)
		if err != nil {
			return TrainResult{}, err
		}

		monitoredError = errorSmoother.Push(rawError)
		plateauError = plateauSmoother.Push(rawError)
		performed = iter

		if opts.MetricsHook != nil {
			fireMetricsHook(opts.MetricsHook, TrainMetrics{
				Iteration:    iter,
				Error:        monitoredError,
				PlateauError: plateauError,
				GradNorm:     net.lastGradNorm,
			})
		}

		if opts.CheckpointLast != nil {
			_ = opts.CheckpointLast(net)
		}
		improved := monitoredError < best-opts.EarlyStopMinDelta
		if improved && opts.CheckpointBest != nil {
			_ = opts.CheckpointBest(net)
		}
		if opts.ScheduleEvery > 0 && opts.ScheduleHook != nil && iter%opts.ScheduleEvery == 0 {
			opts.ScheduleHook(iter)
		}

		if improved {
			best = monitoredError
			noImprove = 0
		} else if opts.EarlyStopPatience > 0 {
			noImprove++
		}
		if opts.EarlyStopPatience > 0 && noImprove >= opts.EarlyStopPatience {
			break
		}
		if opts.HasTargetError && monitoredError <= opts.TargetError {
			break
		}
	}

	net.ResetDropoutMasks()
	net.globalEpoch += performed

	return TrainResult{
		Error:      monitoredError,
		Iterations: performed,
		TimeMS:     time.Since(start).Milliseconds(),
	}, nil
}

// fireMetricsHook recovers a panicking metrics hook, per §4.7's
// "swallowing exceptions" requirement.
func fireMetricsHook(hook func(TrainMetrics), m TrainMetrics) {
	defer func() { _ = recover() }()
	hook(m)
}
