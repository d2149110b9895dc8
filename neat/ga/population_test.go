package ga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPopulationCreatesConfiguredSize(t *testing.T) {
	cfg := loadTestConfig(t)
	pop, err := NewPopulation(cfg)
	require.NoError(t, err)
	assert.Len(t, pop.Population, cfg.Neat.PopSize)
	assert.Equal(t, 0, pop.Generation)
	assert.Nil(t, pop.BestGenome)
}

func TestRunGenerationAdvancesGenerationAndTracksBest(t *testing.T) {
	cfg := loadTestConfig(t)
	pop, err := NewPopulation(cfg)
	require.NoError(t, err)

	fitnessFunc := func(genomes map[int]*Genome) error {
		i := 0.0
		for _, g := range genomes {
			g.Fitness = i * 0.1
			i++
		}
		return nil
	}

	winner, err := pop.RunGeneration(fitnessFunc)
	require.NoError(t, err)
	assert.Nil(t, winner, "fitness_threshold of 3.9 should not be met by this fitness assignment")
	assert.Equal(t, 1, pop.Generation)
	require.NotNil(t, pop.BestGenome)
	assert.NotEmpty(t, pop.Population)
}

func TestRunGenerationReturnsWinnerAtFitnessThreshold(t *testing.T) {
	cfg := loadTestConfig(t)
	pop, err := NewPopulation(cfg)
	require.NoError(t, err)

	fitnessFunc := func(genomes map[int]*Genome) error {
		for _, g := range genomes {
			g.Fitness = 4.0
		}
		return nil
	}

	winner, err := pop.RunGeneration(fitnessFunc)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.GreaterOrEqual(t, winner.Fitness, cfg.Neat.FitnessThreshold)
}
