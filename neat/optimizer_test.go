package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizerConfigValidateRejectsUnknownKind(t *testing.T) {
	cfg := OptimizerConfig{Kind: "not-a-real-optimizer"}
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownOptimizer)
}

func TestOptimizerConfigValidateAcceptsEmptyKindAsPlainSGD(t *testing.T) {
	cfg := OptimizerConfig{}
	assert.NoError(t, cfg.Validate())
}

func TestOptimizerConfigValidateRejectsLookaheadWithoutBase(t *testing.T) {
	cfg := OptimizerConfig{Kind: OptLookahead}
	assert.Error(t, cfg.Validate())
}

func TestOptimizerConfigValidateRejectsNestedLookahead(t *testing.T) {
	cfg := OptimizerConfig{Kind: OptLookahead, Base: &OptimizerConfig{Kind: OptLookahead}}
	assert.ErrorIs(t, cfg.Validate(), ErrNestedLookahead)
}

func TestCommitGradientPlainSGDMatchesClosedForm(t *testing.T) {
	var param, prevDelta, totalDelta float64
	param = 1.0
	totalDelta = 0.5
	var state OptimizerState

	commitGradient(&param, &state, &prevDelta, &totalDelta, 0.1, 0.0, 0.0, nil)

	assert.InDelta(t, 1.05, param, 1e-9)
	assert.Equal(t, 0.0, totalDelta, "commitGradient must reset the accumulator")
}

func TestCommitGradientAppliesMomentum(t *testing.T) {
	var param, prevDelta, totalDelta float64
	prevDelta = 0.2
	totalDelta = 1.0
	var state OptimizerState

	commitGradient(&param, &state, &prevDelta, &totalDelta, 0.1, 0.5, 0.0, nil)
	// delta = rate*g + momentum*prevDelta = 0.1*1.0 + 0.5*0.2 = 0.2
	assert.InDelta(t, 0.2, param, 1e-9)
	assert.InDelta(t, 0.2, prevDelta, 1e-9)
}

func TestCommitGradientWeightDecaySubtractsFromParam(t *testing.T) {
	var param, prevDelta, totalDelta float64
	param = 2.0
	totalDelta = 0.0
	var state OptimizerState

	commitGradient(&param, &state, &prevDelta, &totalDelta, 0.1, 0.0, 0.5, nil)
	// delta = -weightDecay*param = -0.5*2.0 = -1.0
	assert.InDelta(t, 1.0, param, 1e-9)
}

func TestAdamOptimizerMovesParamTowardReducingGradient(t *testing.T) {
	var param float64 = 1.0
	var prevDelta, totalDelta float64
	totalDelta = 1.0 // ascent-convention gradient
	var state OptimizerState
	opt := &OptimizerConfig{Kind: OptAdam}

	for i := 0; i < 5; i++ {
		totalDelta = 1.0
		commitGradient(&param, &state, &prevDelta, &totalDelta, 0.1, 0.0, 0.0, opt)
	}
	require.Greater(t, param, 1.0, "a consistently positive ascent gradient should increase the parameter")
}

func TestLionOptimizerUsesSignOfUpdate(t *testing.T) {
	var param float64
	var prevDelta, totalDelta float64
	var state OptimizerState
	opt := &OptimizerConfig{Kind: OptLion}

	totalDelta = 1.0
	commitGradient(&param, &state, &prevDelta, &totalDelta, 0.1, 0.0, 0.0, opt)
	assert.InDelta(t, 0.1, param, 1e-9)
}
