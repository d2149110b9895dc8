package ga

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundTripPreservesPopulationState(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "xor.ini")
	require.NoError(t, os.WriteFile(configPath, []byte(xorConfigBody), 0o644))

	cfg := loadTestConfig(t)
	pop, err := NewPopulation(cfg)
	require.NoError(t, err)

	i := 0.0
	for _, g := range pop.Population {
		g.Fitness = i
		i++
	}
	pop.BestGenome = pop.findBestGenome()
	pop.Generation = 7
	require.NoError(t, pop.SpeciesSet.Speciate(pop.Config, pop.Population, pop.Generation))

	checkpointPath := filepath.Join(dir, "checkpoint.gz")
	require.NoError(t, pop.SaveCheckpoint(checkpointPath))

	loaded, err := LoadCheckpoint(checkpointPath, configPath)
	require.NoError(t, err)

	assert.Equal(t, pop.Generation, loaded.Generation)
	assert.Len(t, loaded.Population, len(pop.Population))
	require.NotNil(t, loaded.BestGenome)
	assert.Equal(t, pop.BestGenome.Key, loaded.BestGenome.Key)
	assert.Equal(t, pop.BestGenome.Fitness, loaded.BestGenome.Fitness)
	assert.Len(t, loaded.SpeciesSet.Species, len(pop.SpeciesSet.Species))

	for _, g := range loaded.Population {
		assert.NotNil(t, g.Config, "loaded genome must be re-linked to the reloaded config")
	}
}
