package neat

import "math"

// Sample is one (input, target) pair in a training set.
type Sample struct {
	Input  []float64
	Target []float64
}

// mixedPrecisionState tracks the dynamic loss-scaling state described by
// §4.6's "optimizer step" subroutine. LossScale itself is not applied to
// gradients anywhere in this engine (there is no half-precision storage to
// protect), but the scale-up/scale-down bookkeeping and the overflow/
// good-step counters are preserved so a caller driving mixed-precision
// telemetry (or a future fp16 slab) observes the same state machine the
// original system does.
type mixedPrecisionState struct {
	Enabled           bool
	LossScale         float64
	MinScale          float64
	MaxScale          float64
	IncreaseEvery     int
	GoodSteps         int
	ScaleUpCount      int
	ScaleDownCount    int
	ForceNextOverflow bool // single-shot test hook
}

// MixedPrecisionConfig is the user-facing configuration for dynamic loss
// scaling; ConfigureTraining turns it into the Network's internal state.
type MixedPrecisionConfig struct {
	Enabled       bool
	LossScale     float64
	MinScale      float64
	MaxScale      float64
	IncreaseEvery int
}

func (c MixedPrecisionConfig) toState() *mixedPrecisionState {
	scale := c.LossScale
	if scale == 0 {
		scale = 1
	}
	minScale := c.MinScale
	if minScale == 0 {
		minScale = 1
	}
	maxScale := c.MaxScale
	if maxScale == 0 {
		maxScale = 1 << 16
	}
	increaseEvery := c.IncreaseEvery
	if increaseEvery == 0 {
		increaseEvery = 2000
	}
	return &mixedPrecisionState{
		Enabled:       c.Enabled,
		LossScale:     scale,
		MinScale:      minScale,
		MaxScale:      maxScale,
		IncreaseEvery: increaseEvery,
	}
}

// TrainSetOptions parameterizes one call to TrainSet.
type TrainSetOptions struct {
	BatchSize             int
	AccumulationSteps     int
	AccumulationReduction string // "average" (default) | "sum"
	Rate                  float64
	Momentum              float64
	WeightDecay           float64
	Cost                  CostKind
	Optimizer             *OptimizerConfig
}

// ConfigureTraining installs the gradient-clipping and mixed-precision
// configuration TrainSet's optimizer step consults; both are nil-safe
// (nil clip disables clipping, nil/disabled mixed precision skips the
// overflow check entirely).
func (net *Network) ConfigureTraining(clip *ClipConfig, mp *MixedPrecisionConfig) {
	net.currentGradClip = clip
	if mp != nil {
		net.mixedPrecision = mp.toState()
	} else {
		net.mixedPrecision = nil
	}
}

// ForceNextOverflow arms the single-shot mixed-precision overflow test
// hook described by §4.6 step 2, consumed by the next optimizer step.
func (net *Network) ForceNextOverflow() {
	if net.mixedPrecision == nil {
		net.mixedPrecision = (&MixedPrecisionConfig{Enabled: true}).toState()
	}
	net.mixedPrecision.ForceNextOverflow = true
}

// LastGradNorm returns the L2 norm of the previous optimizer step's
// applied parameter deltas (0 if no step has run, or the step overflowed).
func (net *Network) LastGradNorm() float64 { return net.lastGradNorm }

// TrainSet runs one epoch over samples per §4.6's train_set algorithm:
// per-sample forward (training=true) and backward passes, cost
// accumulation, and parameter updates: plain SGD clips and commits after
// every sample, while an adaptive optimizer takes a deferred step at a
// micro-batch boundary once accumulation_steps micro-batches (or the
// dataset) have elapsed.
// Returns the mean cost over every sample that was not skipped for a
// dimension mismatch.
func (net *Network) TrainSet(samples []Sample, opts TrainSetOptions) (float64, error) {
	costFn, err := GetCost(opts.Cost)
	if err != nil {
		return 0, err
	}
	sgdMode := opts.Optimizer == nil || opts.Optimizer.Kind == "" || opts.Optimizer.Kind == OptSGD

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = len(samples)
	}
	accSteps := opts.AccumulationSteps
	if accSteps < 1 {
		accSteps = 1
	}

	net.ApplyDropoutMasks()

	var cumulative float64
	var processed int
	var microBatches int

	outBase := len(net.nodes) - net.OutputCount

	for idx, s := range samples {
		if len(s.Input) != net.InputCount || len(s.Target) != net.OutputCount {
			net.logger.Warnf("sample %d has input/target length %d/%d, want %d/%d; skipping", idx, len(s.Input), len(s.Target), net.InputCount, net.OutputCount)
			continue
		}

		out, err := net.ActivateTraining(s.Input)
		if err != nil {
			continue
		}

		for o := 0; o < net.OutputCount; o++ {
			net.nodes[outBase+o].propagate(s.Target[o])
		}
		for i := outBase - 1; i >= net.InputCount; i-- {
			net.nodes[i].propagate()
		}

		if sgdMode {
			net.applyGradientClipping(net.currentGradClip)
			net.commitGradients(opts.Rate, opts.Momentum, opts.WeightDecay, opts.Optimizer)
		}

		if cost, err := costFn(s.Target, out); err == nil {
			cumulative += cost
		}
		processed++

		atBoundary := (idx%batchSize) == batchSize-1 || idx == len(samples)-1
		if atBoundary && !sgdMode {
			microBatches++
			if microBatches >= accSteps || idx == len(samples)-1 {
				net.runOptimizerStep(opts, accSteps)
				microBatches = 0
			}
		}
	}

	if processed == 0 {
		return 0, nil
	}
	return cumulative / float64(processed), nil
}

// runOptimizerStep is §4.6's "Optimizer step" subroutine: mixed-precision
// overflow detection, gradient clipping, accumulation-steps reduction,
// the per-node optimizer application, and grad-norm/loss-scale
// bookkeeping.
func (net *Network) runOptimizerStep(opts TrainSetOptions, accSteps int) {
	net.optimizerStep++

	if net.mixedPrecision != nil && net.mixedPrecision.Enabled {
		overflow := net.mixedPrecision.ForceNextOverflow
		net.mixedPrecision.ForceNextOverflow = false
		if !overflow {
			overflow = net.hasNonFiniteGradient()
		}
		if overflow {
			net.zeroAccumulatedGradients()
			net.mixedPrecision.LossScale = math.Max(net.mixedPrecision.LossScale/2, net.mixedPrecision.MinScale)
			net.mixedPrecision.GoodSteps = 0
			net.mixedPrecision.ScaleDownCount++
			net.lastOverflowStep = net.optimizerStep
			net.lastGradNorm = 0
			return
		}
	}

	net.applyGradientClipping(net.currentGradClip)

	if accSteps > 1 && opts.AccumulationReduction != "sum" {
		net.scaleAccumulatedGradients(1.0 / float64(accSteps))
	}

	net.commitGradients(opts.Rate, opts.Momentum, opts.WeightDecay, opts.Optimizer)

	var sumSq float64
	for _, n := range net.nodes {
		if n.Type == Input {
			continue
		}
		sumSq += n.BiasPrevDelta * n.BiasPrevDelta
		for _, c := range n.In {
			sumSq += c.PrevDeltaWeight * c.PrevDeltaWeight
		}
	}
	net.lastGradNorm = math.Sqrt(sumSq)

	if net.mixedPrecision != nil && net.mixedPrecision.Enabled {
		net.mixedPrecision.GoodSteps++
		if net.mixedPrecision.GoodSteps >= net.mixedPrecision.IncreaseEvery && net.mixedPrecision.LossScale < net.mixedPrecision.MaxScale {
			net.mixedPrecision.LossScale *= 2
			net.mixedPrecision.GoodSteps = 0
			net.mixedPrecision.ScaleUpCount++
		}
	}
}

func (net *Network) hasNonFiniteGradient() bool {
	for _, n := range net.nodes {
		if n.Type == Input {
			continue
		}
		if !isFinite(n.BiasTotalDelta) {
			return true
		}
		for _, c := range n.In {
			if !isFinite(c.TotalDeltaWeight) {
				return true
			}
		}
	}
	return false
}

func (net *Network) zeroAccumulatedGradients() {
	for _, n := range net.nodes {
		if n.Type == Input {
			continue
		}
		n.BiasTotalDelta = 0
		for _, c := range n.In {
			c.TotalDeltaWeight = 0
		}
	}
}

func (net *Network) scaleAccumulatedGradients(scale float64) {
	for _, n := range net.nodes {
		if n.Type == Input {
			continue
		}
		n.BiasTotalDelta *= scale
		for _, c := range n.In {
			c.TotalDeltaWeight *= scale
		}
	}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
