package ga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeciateAssignsEveryGenomeToASpecies(t *testing.T) {
	cfg := loadTestConfig(t)

	population := make(map[int]*Genome, 20)
	for i := 1; i <= 20; i++ {
		g := NewGenome(i, &cfg.Genome)
		g.ConfigureNew()
		g.Fitness = float64(i)
		population[i] = g
	}

	ss := NewSpeciesSet(&cfg.SpeciesSet)
	require.NoError(t, ss.Speciate(cfg, population, 0))

	assert.NotEmpty(t, ss.Species)
	for id := range population {
		sid, ok := ss.GetSpeciesID(id)
		assert.True(t, ok, "genome %d was not assigned a species", id)
		_, ok = ss.GetSpecies(id)
		assert.True(t, ok)
		_ = sid
	}

	total := 0
	for _, sp := range ss.Species {
		total += len(sp.Members)
	}
	assert.Equal(t, len(population), total)
}

func TestSpeciateEmptyPopulationClearsState(t *testing.T) {
	cfg := loadTestConfig(t)
	ss := NewSpeciesSet(&cfg.SpeciesSet)
	require.NoError(t, ss.Speciate(cfg, map[int]*Genome{}, 0))
	assert.Empty(t, ss.Species)
	assert.Empty(t, ss.GenomeToSpecies)
}

func TestGenomeDistanceCacheIsSymmetricAndCached(t *testing.T) {
	cfg := loadTestConfig(t)
	g1 := NewGenome(1, &cfg.Genome)
	g1.ConfigureNew()
	g2 := NewGenome(2, &cfg.Genome)
	g2.ConfigureNew()

	dc := NewGenomeDistanceCache(&cfg.Genome)
	d1 := dc.Distance(g1, g2)
	d2 := dc.Distance(g2, g1)
	assert.Equal(t, d1, d2)
	assert.Equal(t, 1, dc.Misses)
	assert.Equal(t, 1, dc.Hits)
}
