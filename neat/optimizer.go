package neat

import (
	"fmt"
	"math"
)

// OptimizerKind names one of the built-in per-parameter update rules.
type OptimizerKind string

const (
	OptSGD       OptimizerKind = "sgd"
	OptRMSProp   OptimizerKind = "rmsprop"
	OptAdagrad   OptimizerKind = "adagrad"
	OptAdam      OptimizerKind = "adam"
	OptAdamW     OptimizerKind = "adamw"
	OptAMSGrad   OptimizerKind = "amsgrad"
	OptAdamax    OptimizerKind = "adamax"
	OptNadam     OptimizerKind = "nadam"
	OptRadam     OptimizerKind = "radam"
	OptLion      OptimizerKind = "lion"
	OptAdaBelief OptimizerKind = "adabelief"
	OptLookahead OptimizerKind = "lookahead"
)

// knownOptimizers is used to validate an OptimizerConfig.Kind up front, at
// Train's entry-validation step, rather than failing lazily mid-run.
var knownOptimizers = map[OptimizerKind]bool{
	OptSGD: true, OptRMSProp: true, OptAdagrad: true, OptAdam: true,
	OptAdamW: true, OptAMSGrad: true, OptAdamax: true, OptNadam: true,
	OptRadam: true, OptLion: true, OptAdaBelief: true, OptLookahead: true,
}

// OptimizerConfig selects and parameterizes a per-parameter update rule.
// Zero-valued fields are filled with sane defaults by withDefaults.
type OptimizerConfig struct {
	Kind         OptimizerKind
	Beta1        float64 // first-moment decay (adam family, lion)
	Beta2        float64 // second-moment decay (adam family)
	Epsilon      float64
	WeightDecay  float64 // adamw decoupled weight decay coefficient

	// Lookahead wraps another optimizer as its fast weights.
	LookaheadK     int
	LookaheadAlpha float64
	Base           *OptimizerConfig
}

func (c OptimizerConfig) withDefaults() OptimizerConfig {
	if c.Beta1 == 0 {
		c.Beta1 = 0.9
	}
	if c.Beta2 == 0 {
		c.Beta2 = 0.999
	}
	if c.Epsilon == 0 {
		c.Epsilon = 1e-8
	}
	if c.LookaheadK == 0 {
		c.LookaheadK = 5
	}
	if c.LookaheadAlpha == 0 {
		c.LookaheadAlpha = 0.5
	}
	return c
}

// Validate reports ErrUnknownOptimizer for an unrecognized Kind and
// ErrNestedLookahead if a lookahead optimizer wraps another lookahead.
func (c OptimizerConfig) Validate() error {
	if c.Kind == "" {
		return nil // unset means "plain SGD", handled by the caller
	}
	if !knownOptimizers[c.Kind] {
		return fmt.Errorf("%w: %q", ErrUnknownOptimizer, c.Kind)
	}
	if c.Kind == OptLookahead {
		if c.Base == nil {
			return fmt.Errorf("%w: lookahead requires a Base optimizer", ErrInvalidOption)
		}
		if c.Base.Kind == OptLookahead {
			return ErrNestedLookahead
		}
	}
	return nil
}

// OptimizerState is the per-parameter running state an adaptive optimizer
// carries across steps: first/second moment estimates, the AMSGrad running
// max, and the lookahead slow-weight shadow.
type OptimizerState struct {
	M, V, VMax float64
	Step       int

	Slow     float64
	SlowInit bool
}

// accumulateGradient folds grad into the parameter's running
// TotalDeltaWeight-equivalent slot. Node.propagate calls this once per
// sample in a micro-batch; nothing is applied to the parameter itself
// until commitGradient runs (after gradient clipping has had a chance to
// rescale the accumulated slot).
func accumulateGradient(totalDelta *float64, grad float64) {
	*totalDelta += grad
}

// commitGradient turns the (possibly clipped) accumulated gradient sitting
// in *totalDelta into a parameter delta, via either classic
// SGD-with-momentum (opt == nil or opt.Kind == "") or the configured
// adaptive optimizer, applies it to *param, and resets *totalDelta to 0.
//
// grad is expressed in the "responsibility" (ascent) convention used by
// Node.propagate: param += rate*grad moves the parameter to reduce error
// directly, with no extra sign flip at the call site.
func commitGradient(param *float64, state *OptimizerState, prevDelta, totalDelta *float64, rate, momentum, weightDecay float64, opt *OptimizerConfig) {
	g := *totalDelta
	*totalDelta = 0

	var delta float64
	if opt == nil || opt.Kind == "" || opt.Kind == OptSGD {
		// Weight decay is subtracted here, not folded into an adaptive
		// optimizer's formula, matching the plain-SGD-only carve-out in
		// the backward-pass weight-update rule.
		delta = rate*g + momentum*(*prevDelta) - weightDecay*(*param)
	} else {
		delta = optimizerDelta(param, opt, state, g, rate)
	}
	*param += delta
	*prevDelta = delta
}

// optimizerDelta computes the parameter delta for one of the adaptive
// optimizers. g is in the ascent convention; trueGrad = -g is the
// loss-gradient convention the textbook formulas below are stated in, so
// every branch returns a delta already safe to add directly to *param.
func optimizerDelta(param *float64, cfg *OptimizerConfig, s *OptimizerState, g, rate float64) float64 {
	c := cfg.withDefaults()
	trueGrad := -g
	s.Step++
	t := float64(s.Step)

	switch c.Kind {
	case OptRMSProp:
		s.V = c.Beta2*s.V + (1-c.Beta2)*trueGrad*trueGrad
		return -rate * trueGrad / (math.Sqrt(s.V) + c.Epsilon)

	case OptAdagrad:
		s.V += trueGrad * trueGrad
		return -rate * trueGrad / (math.Sqrt(s.V) + c.Epsilon)

	case OptAdam:
		s.M = c.Beta1*s.M + (1-c.Beta1)*trueGrad
		s.V = c.Beta2*s.V + (1-c.Beta2)*trueGrad*trueGrad
		mhat := s.M / (1 - math.Pow(c.Beta1, t))
		vhat := s.V / (1 - math.Pow(c.Beta2, t))
		return -rate * mhat / (math.Sqrt(vhat) + c.Epsilon)

	case OptAdamW:
		s.M = c.Beta1*s.M + (1-c.Beta1)*trueGrad
		s.V = c.Beta2*s.V + (1-c.Beta2)*trueGrad*trueGrad
		mhat := s.M / (1 - math.Pow(c.Beta1, t))
		vhat := s.V / (1 - math.Pow(c.Beta2, t))
		return -rate*mhat/(math.Sqrt(vhat)+c.Epsilon) - rate*c.WeightDecay*(*param)

	case OptAMSGrad:
		s.M = c.Beta1*s.M + (1-c.Beta1)*trueGrad
		s.V = c.Beta2*s.V + (1-c.Beta2)*trueGrad*trueGrad
		s.VMax = math.Max(s.VMax, s.V)
		mhat := s.M / (1 - math.Pow(c.Beta1, t))
		return -rate * mhat / (math.Sqrt(s.VMax) + c.Epsilon)

	case OptAdamax:
		s.M = c.Beta1*s.M + (1-c.Beta1)*trueGrad
		s.V = math.Max(c.Beta2*s.V, math.Abs(trueGrad))
		mhat := s.M / (1 - math.Pow(c.Beta1, t))
		return -rate * mhat / (s.V + c.Epsilon)

	case OptNadam:
		s.M = c.Beta1*s.M + (1-c.Beta1)*trueGrad
		s.V = c.Beta2*s.V + (1-c.Beta2)*trueGrad*trueGrad
		mhat := s.M / (1 - math.Pow(c.Beta1, t))
		vhat := s.V / (1 - math.Pow(c.Beta2, t))
		nesterov := c.Beta1*mhat + (1-c.Beta1)*trueGrad/(1-math.Pow(c.Beta1, t))
		return -rate * nesterov / (math.Sqrt(vhat) + c.Epsilon)

	case OptRadam:
		s.M = c.Beta1*s.M + (1-c.Beta1)*trueGrad
		s.V = c.Beta2*s.V + (1-c.Beta2)*trueGrad*trueGrad
		mhat := s.M / (1 - math.Pow(c.Beta1, t))
		rhoInf := 2/(1-c.Beta2) - 1
		beta2t := math.Pow(c.Beta2, t)
		rhoT := rhoInf - 2*t*beta2t/(1-beta2t)
		if rhoT > 4 {
			vhat := s.V / (1 - beta2t)
			rt := math.Sqrt(((rhoT - 4) * (rhoT - 2) * rhoInf) / ((rhoInf - 4) * (rhoInf - 2) * rhoT))
			return -rate * rt * mhat / (math.Sqrt(vhat) + c.Epsilon)
		}
		return -rate * mhat

	case OptLion:
		update := c.Beta1*s.M + (1-c.Beta1)*trueGrad
		sign := 1.0
		if update < 0 {
			sign = -1.0
		} else if update == 0 {
			sign = 0.0
		}
		s.M = c.Beta2*s.M + (1-c.Beta2)*trueGrad
		return -rate * sign

	case OptAdaBelief:
		s.M = c.Beta1*s.M + (1-c.Beta1)*trueGrad
		diff := trueGrad - s.M
		s.V = c.Beta2*s.V + (1-c.Beta2)*diff*diff
		mhat := s.M / (1 - math.Pow(c.Beta1, t))
		vhat := s.V / (1 - math.Pow(c.Beta2, t))
		return -rate * mhat / (math.Sqrt(vhat) + c.Epsilon)

	case OptLookahead:
		if !s.SlowInit {
			s.Slow = *param
			s.SlowInit = true
		}
		fastDelta := optimizerDelta(param, c.Base, s, g, rate)
		*param += fastDelta
		if s.Step%c.LookaheadK == 0 {
			newSlow := s.Slow + c.LookaheadAlpha*(*param-s.Slow)
			delta := newSlow - *param
			s.Slow = newSlow
			return delta
		}
		return 0

	default:
		// Unreachable once OptimizerConfig.Validate has run; fall back to
		// plain SGD rather than silently dropping the gradient.
		return rate * g
	}
}
