package ga

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/glialnet/neat-go/neat"
)

// Reproduction handles the creation of new genomes, either from scratch or through crossover and mutation.
type Reproduction struct {
	Config        *neat.ReproductionConfig
	NextGenomeKey int           // State for the next genome key
	Ancestors     map[int][]int // Map genome key -> parent keys (for tracking lineage)
	Stagnation    *Stagnation
}

// getNextKey gets the next available genome key and increments the internal counter.
func (r *Reproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *neat.ReproductionConfig, stagnation *Stagnation) *Reproduction {
	return &Reproduction{
		Config:        config,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
		Stagnation:    stagnation,
	}
}

// CreateNewPopulation creates an initial population of genomes.
func (r *Reproduction) CreateNewPopulation(genomeConfig *neat.GenomeConfig, popSize int) map[int]*Genome {
	newGenomes := make(map[int]*Genome, popSize)
	for i := 0; i < popSize; i++ {
		key := r.getNextKey()
		g := NewGenome(key, genomeConfig)
		g.ConfigureNew()
		newGenomes[key] = g
		r.Ancestors[key] = []int{}
	}
	return newGenomes
}

// Reproduce creates the next generation of genomes based on the current species and their fitness.
func (r *Reproduction) Reproduce(overallConfig *neat.Config, speciesSet *SpeciesSet, popSize int, generation int) (map[int]*Genome, error) {
	stagnationInfo, err := r.Stagnation.Update(speciesSet, generation)
	if err != nil {
		return nil, fmt.Errorf("failed to update stagnation: %w", err)
	}

	allFitnesses := []float64{}
	remainingSpecies := []*Species{}
	for _, info := range stagnationInfo {
		if info.IsStagnant {
			fmt.Printf("Info: Species %d removed due to stagnation.\n", info.SpeciesID)
		} else {
			sp := info.Species
			memberFitnesses := sp.GetFitnesses()
			if len(memberFitnesses) > 0 {
				allFitnesses = append(allFitnesses, memberFitnesses...)
				remainingSpecies = append(remainingSpecies, sp)
			} else {
				fmt.Printf("Info: Species %d removed as it has no members.\n", info.SpeciesID)
			}
		}
	}

	if len(remainingSpecies) == 0 {
		fmt.Println("Error: All species became extinct!")
		return make(map[int]*Genome), nil
	}

	minFitness := neat.MinFloat(allFitnesses)
	maxFitness := neat.MaxFloat(allFitnesses)
	fitnessRange := math.Max(1.0, maxFitness-minFitness)

	adjustedFitnessSum := 0.0
	for _, sp := range remainingSpecies {
		meanSpeciesFitness := sp.Fitness
		adjustedFitness := (meanSpeciesFitness - minFitness) / fitnessRange
		sp.AdjustedFitness = adjustedFitness
		adjustedFitnessSum += adjustedFitness
	}

	previousSizes := make([]int, len(remainingSpecies))
	adjustedFitnesses := make([]float64, len(remainingSpecies))
	for i, sp := range remainingSpecies {
		previousSizes[i] = len(sp.Members)
		adjustedFitnesses[i] = sp.AdjustedFitness
	}

	minSpeciesSize := r.Config.MinSpeciesSize
	spawnMinSize := max(minSpeciesSize, r.Config.Elitism)

	spawnAmounts := computeSpawnAmounts(adjustedFitnesses, adjustedFitnessSum, previousSizes, popSize, spawnMinSize)

	newPopulation := make(map[int]*Genome)
	newAncestors := make(map[int][]int)

	for i, sp := range remainingSpecies {
		spawn := spawnAmounts[i]
		spawn = max(spawn, r.Config.Elitism)

		if spawn <= 0 {
			continue
		}

		oldMembers := make([]*Genome, 0, len(sp.Members))
		for _, g := range sp.Members {
			oldMembers = append(oldMembers, g)
		}
		// Equal-fitness genomes break ties toward the simpler phenotype
		// (fewer connections, then fewer nodes): a parsimony preference so
		// elitism and parent selection don't carry forward bloat that
		// bought the genome nothing in fitness.
		sort.Slice(oldMembers, func(i, j int) bool {
			if oldMembers[i].Fitness != oldMembers[j].Fitness {
				return oldMembers[i].Fitness > oldMembers[j].Fitness
			}
			ci, cj := oldMembers[i].Complexity(), oldMembers[j].Complexity()
			if ci.Connections != cj.Connections {
				return ci.Connections < cj.Connections
			}
			return ci.Nodes < cj.Nodes
		})

		elitesTaken := 0
		if r.Config.Elitism > 0 {
			for j := 0; j < r.Config.Elitism && j < len(oldMembers); j++ {
				eliteGenome := oldMembers[j]
				newPopulation[eliteGenome.Key] = eliteGenome
				newAncestors[eliteGenome.Key] = []int{eliteGenome.Key}
				elitesTaken++
			}
		}
		spawn -= elitesTaken
		if spawn <= 0 {
			continue
		}

		survivalCutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(oldMembers))))
		survivalCutoff = max(survivalCutoff, 2)
		if survivalCutoff > len(oldMembers) {
			survivalCutoff = len(oldMembers)
		}
		if survivalCutoff < 1 && len(oldMembers) > 0 {
			survivalCutoff = 1
		}

		parents := oldMembers[:survivalCutoff]

		if len(parents) == 0 {
			fmt.Printf("Warning: No parents available for species %d despite spawn > 0.\n", sp.Key)
			continue
		}

		for j := 0; j < spawn; j++ {
			parent1 := parents[rand.Intn(len(parents))]
			parent2 := parents[rand.Intn(len(parents))]

			childKey := r.getNextKey()
			child := NewGenome(childKey, &overallConfig.Genome)
			child.ConfigureCrossover(parent1, parent2)
			child.Mutate()

			newPopulation[childKey] = child
			newAncestors[childKey] = []int{parent1.Key, parent2.Key}
		}
	}
	r.Ancestors = newAncestors

	if len(newPopulation) != popSize {
		fmt.Printf("Warning: New population size (%d) differs from target (%d).\n", len(newPopulation), popSize)
	}

	return newPopulation, nil
}

// computeSpawnAmounts calculates the number of offspring each species should produce.
func computeSpawnAmounts(adjustedFitnesses []float64, adjustedFitnessSum float64, previousSizes []int, popSize int, minSpeciesSize int) []int {
	spawnAmounts := make([]int, len(adjustedFitnesses))

	for i, af := range adjustedFitnesses {
		ps := previousSizes[i]
		var s float64
		if adjustedFitnessSum > 0 {
			s = af / adjustedFitnessSum * float64(popSize)
		} else {
			s = float64(minSpeciesSize)
		}
		s = math.Max(float64(minSpeciesSize), s)

		d := (s - float64(ps)) * 0.5
		c := int(math.Round(d))
		spawn := ps
		if math.Abs(float64(c)) > 0 {
			spawn += c
		} else if d > 0 {
			spawn++
		} else if d < 0 {
			spawn--
		}
		spawnAmounts[i] = max(minSpeciesSize, spawn)
	}

	totalSpawn := 0
	for _, sa := range spawnAmounts {
		totalSpawn += sa
	}

	if totalSpawn == 0 {
		fmt.Println("Warning: Total spawn calculated as 0. Assigning minimum size to all species.")
		for i := range spawnAmounts {
			spawnAmounts[i] = minSpeciesSize
		}
		totalSpawn = len(spawnAmounts) * minSpeciesSize
		if totalSpawn == 0 {
			return spawnAmounts
		}
	}

	norm := float64(popSize) / float64(totalSpawn)
	finalSpawnAmounts := make([]int, len(spawnAmounts))
	currentTotal := 0
	for i, sa := range spawnAmounts {
		normalizedSpawn := int(math.Round(float64(sa) * norm))
		finalSpawnAmounts[i] = max(minSpeciesSize, normalizedSpawn)
		currentTotal += finalSpawnAmounts[i]
	}

	diff := popSize - currentTotal
	if diff != 0 {
		indices := make([]int, len(finalSpawnAmounts))
		for i := range indices {
			indices[i] = i
		}
		rand.Shuffle(len(indices), func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })

		for _, idx := range indices {
			if diff == 0 {
				break
			}
			if diff > 0 {
				finalSpawnAmounts[idx]++
				diff--
			} else {
				if finalSpawnAmounts[idx] > minSpeciesSize {
					finalSpawnAmounts[idx]--
					diff++
				}
			}
		}
		if diff != 0 {
			fmt.Printf("Warning: Could not exactly match pop_size after spawn normalization. Final size may differ slightly.\n")
		}
	}

	return finalSpawnAmounts
}
