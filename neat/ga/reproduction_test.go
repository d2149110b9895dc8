package ga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNewPopulationProducesConfiguredSize(t *testing.T) {
	cfg := loadTestConfig(t)
	st, err := NewStagnation(&cfg.Stagnation)
	require.NoError(t, err)
	repro := NewReproduction(&cfg.Reproduction, st)

	pop := repro.CreateNewPopulation(&cfg.Genome, cfg.Neat.PopSize)
	assert.Len(t, pop, cfg.Neat.PopSize)
	for key, g := range pop {
		assert.Equal(t, key, g.Key)
		assert.Empty(t, repro.Ancestors[key])
	}
}

func TestReproduceProducesApproximatelyTargetPopulationSize(t *testing.T) {
	cfg := loadTestConfig(t)
	st, err := NewStagnation(&cfg.Stagnation)
	require.NoError(t, err)
	repro := NewReproduction(&cfg.Reproduction, st)

	population := repro.CreateNewPopulation(&cfg.Genome, cfg.Neat.PopSize)
	i := 0.0
	for _, g := range population {
		g.Fitness = i
		i++
	}

	ss := NewSpeciesSet(&cfg.SpeciesSet)
	require.NoError(t, ss.Speciate(cfg, population, 0))

	newPop, err := repro.Reproduce(cfg, ss, cfg.Neat.PopSize, 1)
	require.NoError(t, err)
	assert.Equal(t, cfg.Neat.PopSize, len(newPop))

	for key, g := range newPop {
		assert.Equal(t, key, g.Key)
		assert.NotNil(t, g.Config)
	}
}

func TestReproduceCarriesEliteGenomesForward(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Reproduction.Elitism = 1
	st, err := NewStagnation(&cfg.Stagnation)
	require.NoError(t, err)
	repro := NewReproduction(&cfg.Reproduction, st)

	population := repro.CreateNewPopulation(&cfg.Genome, cfg.Neat.PopSize)
	var bestKey int
	i := 0.0
	for key, g := range population {
		g.Fitness = i
		if i == float64(len(population)-1) {
			bestKey = key
		}
		i++
	}

	ss := NewSpeciesSet(&cfg.SpeciesSet)
	require.NoError(t, ss.Speciate(cfg, population, 0))

	newPop, err := repro.Reproduce(cfg, ss, cfg.Neat.PopSize, 1)
	require.NoError(t, err)

	_, survived := newPop[bestKey]
	assert.True(t, survived, "the fittest genome in its species should be carried over via elitism")
}
