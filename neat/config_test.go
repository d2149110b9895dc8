package neat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigBody = `
[NEAT]
pop_size = 10
fitness_criterion = max
fitness_threshold = 3.9
reset_on_extinction = false

[DefaultGenome]
num_inputs = 2
num_outputs = 1
num_hidden = 0
feed_forward = true
compatibility_disjoint_coefficient = 1.0
compatibility_weight_coefficient = 0.5
conn_add_prob = 0.5
conn_delete_prob = 0.5
node_add_prob = 0.2
node_delete_prob = 0.2
initial_connection = full_nodirect
bias_init_mean = 0.0
bias_init_stdev = 1.0
bias_replace_rate = 0.1
bias_mutate_rate = 0.7
bias_mutate_power = 0.5
bias_max_value = 30.0
bias_min_value = -30.0
response_init_mean = 1.0
response_init_stdev = 0.0
response_replace_rate = 0.0
response_mutate_rate = 0.0
response_mutate_power = 0.0
response_max_value = 30.0
response_min_value = -30.0
activation_default = sigmoid
activation_options = sigmoid tanh
activation_mutate_rate = 0.1
aggregation_default = sum
aggregation_options = sum mean
aggregation_mutate_rate = 0.0
weight_init_mean = 0.0
weight_init_stdev = 1.0
weight_replace_rate = 0.1
weight_mutate_rate = 0.8
weight_mutate_power = 0.5
weight_max_value = 30.0
weight_min_value = -30.0
enabled_default = True
enabled_mutate_rate = 0.01

[DefaultReproduction]
elitism = 2
survival_threshold = 0.2
min_species_size = 2

[DefaultSpeciesSet]
compatibility_threshold = 3.0

[DefaultStagnation]
species_fitness_func = mean
max_stagnation = 20
species_elitism = 2

[DefaultTraining]
iterations = 500
error = 0.01
rate = 0.25
batch_size = 4
accumulation_steps = 2
accumulation_reduction = sum
cost = mse

[DefaultOptimizer]
kind = adam
beta1 = 0.9
beta2 = 0.999
eps = 1e-8

[DefaultGradientClip]
mode = norm
max_norm = 1.0

[DefaultMixedPrecision]
enabled = true
loss_scale = 1024
min_scale = 1
max_scale = 65536
increase_every = 2000
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test-config.ini")
	require.NoError(t, os.WriteFile(path, []byte(testConfigBody), 0o644))
	return path
}

func TestLoadConfigTrainingSections(t *testing.T) {
	path := writeTestConfig(t)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Training.Iterations)
	assert.Equal(t, 0.25, cfg.Training.Rate)
	assert.Equal(t, "sum", cfg.Training.AccumulationReduction)
	assert.Equal(t, "mse", cfg.Training.Cost)

	assert.Equal(t, "adam", cfg.Optimizer.Kind)
	assert.Equal(t, 0.9, cfg.Optimizer.Beta1)

	assert.Equal(t, "norm", cfg.GradientClip.Mode)
	assert.Equal(t, 1.0, cfg.GradientClip.MaxNorm)

	assert.True(t, cfg.MixedPrec.Enabled)
	assert.Equal(t, 1024.0, cfg.MixedPrec.LossScale)
}

func TestLoadConfigOptionalTrainingSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no-training.ini")
	// Strip the training-related sections entirely: they're optional for a
	// config file whose caller only ever runs evolutionary search.
	body := testConfigBody[:indexOf(t, testConfigBody, "[DefaultTraining]")]
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Training.Rate, "LoadConfig should fall back to the default rate")
	assert.Equal(t, "average", cfg.Training.AccumulationReduction)
}

func TestConfigToTrainOptions(t *testing.T) {
	path := writeTestConfig(t)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	opts := cfg.ToTrainOptions()
	assert.Equal(t, 500, opts.Iterations)
	assert.True(t, opts.HasTargetError)
	assert.Equal(t, 0.01, opts.TargetError)
	assert.Equal(t, CostMSE, opts.Cost)

	require.NotNil(t, opts.Optimizer)
	assert.Equal(t, OptAdam, opts.Optimizer.Kind)

	require.NotNil(t, opts.GradClip)
	assert.Equal(t, ClipNorm, opts.GradClip.Mode)

	require.NotNil(t, opts.MixedPrecision)
	assert.Equal(t, 1024.0, opts.MixedPrecision.LossScale)
}

func indexOf(t *testing.T, s, sub string) int {
	t.Helper()
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	t.Fatalf("substring %q not found", sub)
	return -1
}
