package ga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glialnet/neat-go/neat"
)

func newTestSpecies(key int, fitness float64, lastImproved int) *Species {
	sp := NewSpecies(key, 0)
	sp.LastImproved = lastImproved
	// A recorded fitness equal to the current one means Update sees no
	// improvement this generation, so lastImproved stands.
	sp.FitnessHistory = []float64{fitness}
	g := NewGenome(1, &neat.GenomeConfig{})
	g.Fitness = fitness
	sp.Members = map[int]*Genome{1: g}
	return sp
}

func TestStagnationMarksSpeciesAfterMaxStagnation(t *testing.T) {
	cfg := &neat.StagnationConfig{
		SpeciesFitnessFunc: "mean",
		MaxStagnation:      5,
		SpeciesElitism:     0,
	}
	st, err := NewStagnation(cfg)
	require.NoError(t, err)

	ss := NewSpeciesSet(&neat.SpeciesSetConfig{CompatibilityThreshold: 3.0})
	ss.Species[1] = newTestSpecies(1, 1.0, 0)
	// A fitter, recently improved species stays non-stagnant, so Update's
	// elitism block has no reason to spare the stale one.
	ss.Species[2] = newTestSpecies(2, 2.0, 8)

	results, err := st.Update(ss, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].SpeciesID)
	assert.True(t, results[0].IsStagnant)
}

func TestStagnationSparesRecentlyImprovedSpecies(t *testing.T) {
	cfg := &neat.StagnationConfig{
		SpeciesFitnessFunc: "mean",
		MaxStagnation:      5,
		SpeciesElitism:     0,
	}
	st, err := NewStagnation(cfg)
	require.NoError(t, err)

	ss := NewSpeciesSet(&neat.SpeciesSetConfig{CompatibilityThreshold: 3.0})
	ss.Species[1] = newTestSpecies(1, 1.0, 8)

	results, err := st.Update(ss, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].IsStagnant)
}

func TestStagnationElitismSparesLowestStagnantSpecies(t *testing.T) {
	cfg := &neat.StagnationConfig{
		SpeciesFitnessFunc: "mean",
		MaxStagnation:      5,
		SpeciesElitism:     2,
	}
	st, err := NewStagnation(cfg)
	require.NoError(t, err)

	ss := NewSpeciesSet(&neat.SpeciesSetConfig{CompatibilityThreshold: 3.0})
	ss.Species[1] = newTestSpecies(1, 1.0, 0)
	ss.Species[2] = newTestSpecies(2, 2.0, 0)

	results, err := st.Update(ss, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.IsStagnant, "species elitism should spare every species when count <= elitism")
	}
}

// TestStagnationGrantsGracePeriodToGatedRepresentative confirms a species
// whose representative phenotype carries a gate survives past the
// configured MaxStagnation, since effectiveMaxStagnation extends the
// grace period by 50% for gated/recurrent representatives.
func TestStagnationGrantsGracePeriodToGatedRepresentative(t *testing.T) {
	cfg := &neat.StagnationConfig{
		SpeciesFitnessFunc: "mean",
		MaxStagnation:      4,
		SpeciesElitism:     0,
	}
	st, err := NewStagnation(cfg)
	require.NoError(t, err)

	ss := NewSpeciesSet(&neat.SpeciesSetConfig{CompatibilityThreshold: 3.0})
	sp := newTestSpecies(1, 1.0, 0)
	sp.RepresentativeComplexity = PhenotypeComplexity{Nodes: 3, Connections: 2, Gates: 1}
	ss.Species[1] = sp

	// 5 generations of stagnation exceeds the plain MaxStagnation of 4, but
	// not the 6-generation grace period a gated representative earns.
	results, err := st.Update(ss, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].IsStagnant)
}

func TestStagnationEmptySpeciesSetReturnsEmpty(t *testing.T) {
	cfg := &neat.StagnationConfig{SpeciesFitnessFunc: "mean", MaxStagnation: 5}
	st, err := NewStagnation(cfg)
	require.NoError(t, err)

	ss := NewSpeciesSet(&neat.SpeciesSetConfig{CompatibilityThreshold: 3.0})
	results, err := st.Update(ss, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNewStagnationRejectsUnknownFitnessFunc(t *testing.T) {
	_, err := NewStagnation(&neat.StagnationConfig{SpeciesFitnessFunc: "not-a-real-func"})
	assert.Error(t, err)
}
