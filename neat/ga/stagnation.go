package ga

import (
	"fmt"
	"math"
	"sort"

	"github.com/glialnet/neat-go/neat"
)

// Stagnation manages the detection of stagnant species.
type Stagnation struct {
	Config             *neat.StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *neat.StagnationConfig) (*Stagnation, error) {
	fn, ok := neat.StatFunctions[config.SpeciesFitnessFunc]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", config.SpeciesFitnessFunc)
	}

	return &Stagnation{
		Config:             config,
		SpeciesFitnessFunc: fn,
	}, nil
}

// StagnationInfo holds the results of the stagnation update for a single species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update checks for stagnant species within the species set.
// It updates species fitness history and marks species for removal based on stagnation criteria.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) ([]StagnationInfo, error) {
	if len(speciesSet.Species) == 0 {
		return []StagnationInfo{}, nil
	}

	speciesData := []struct {
		ID      int
		Species *Species
	}{}

	for sid, sp := range speciesSet.Species {
		previousMaxFitness := math.Inf(-1)
		if len(sp.FitnessHistory) > 0 {
			previousMaxFitness = neat.MaxFloat(sp.FitnessHistory)
		}

		memberFitnesses := sp.GetFitnesses()
		if len(memberFitnesses) == 0 {
			sp.Fitness = math.Inf(-1)
		} else {
			sp.Fitness = s.SpeciesFitnessFunc(memberFitnesses)
		}

		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0

		if sp.Fitness > previousMaxFitness {
			sp.LastImproved = generation
		}

		speciesData = append(speciesData, struct {
			ID      int
			Species *Species
		}{sid, sp})
	}

	sort.Slice(speciesData, func(i, j int) bool {
		return speciesData[i].Species.Fitness < speciesData[j].Species.Fitness
	})

	result := make([]StagnationInfo, len(speciesData))
	numSpecies := len(speciesData)
	numNonStagnant := numSpecies

	for i, data := range speciesData {
		sp := data.Species
		stagnantTime := generation - sp.LastImproved
		maxStagnation := s.effectiveMaxStagnation(sp)
		isStagnant := false

		if stagnantTime >= maxStagnation {
			if (numSpecies - i) > s.Config.SpeciesElitism {
				isStagnant = true
				numNonStagnant--
			}
		}

		if numNonStagnant <= s.Config.SpeciesElitism && isStagnant {
			isStagnantStandard := stagnantTime >= maxStagnation
			isStagnant = false
			if numNonStagnant > s.Config.SpeciesElitism && isStagnantStandard {
				isStagnant = true
			}
			if (numSpecies - i) <= s.Config.SpeciesElitism {
				isStagnant = false
			}

			if isStagnantStandard && !isStagnant {
				fmt.Printf("Info: Species %d spared from stagnation due to elitism (Fitness: %.3f, Stagnant for: %d gen)\n", sp.Key, sp.Fitness, stagnantTime)
			} else if isStagnant {
				numNonStagnant--
			}
		}

		result[i] = StagnationInfo{
			SpeciesID:  data.ID,
			Species:    sp,
			IsStagnant: isStagnant,
		}
	}

	return result, nil
}

// effectiveMaxStagnation grants species whose representative phenotype has
// evolved gating or recurrent self-loops a 50% longer stagnation grace
// period: those structures took more evolutionary investment to reach than
// the representative's raw gene count reflects, so they're worth a longer
// chance to pay off before the species is culled.
func (s *Stagnation) effectiveMaxStagnation(sp *Species) int {
	max := s.Config.MaxStagnation
	c := sp.RepresentativeComplexity
	if c.Gates > 0 || c.SelfLoops > 0 {
		max += max / 2
	}
	return max
}
