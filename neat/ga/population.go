package ga

import (
	"fmt"
	"math"
	"time"

	"github.com/glialnet/neat-go/neat"
)

// FitnessFunc is the type for the function provided by the user to evaluate genome fitness.
// It takes the current generation of genomes and should update their Fitness field.
type FitnessFunc func(genomes map[int]*Genome) error

// Population holds the state of the NEAT evolutionary process.
type Population struct {
	Config       *neat.Config
	Population   map[int]*Genome
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Generation   int
	BestGenome   *Genome
}

// NewPopulation creates a new Population instance.
// It initializes the first generation of genomes based on the config.
func NewPopulation(config *neat.Config) (*Population, error) {
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}

	reproduction := NewReproduction(&config.Reproduction, stagnation)
	initialPopulation := reproduction.CreateNewPopulation(&config.Genome, config.Neat.PopSize)
	speciesSet := NewSpeciesSet(&config.SpeciesSet)

	p := &Population{
		Config:       config,
		Population:   initialPopulation,
		SpeciesSet:   speciesSet,
		Reproduction: reproduction,
		Stagnation:   stagnation,
		Generation:   0,
		BestGenome:   nil,
	}
	return p, nil
}

// RunGeneration executes a single generation of the NEAT algorithm.
// Returns the winning genome if the fitness threshold is met this generation, otherwise nil.
func (p *Population) RunGeneration(fitnessFunc FitnessFunc) (*Genome, error) {
	p.Generation++
	genStartTime := time.Now()
	fmt.Printf("****** Generation %d ******\n", p.Generation)

	fmt.Println(" Evaluating fitness...")
	if err := fitnessFunc(p.Population); err != nil {
		return nil, fmt.Errorf("fitness evaluation failed in generation %d: %w", p.Generation, err)
	}

	currentBest := p.findBestGenome()
	bestUpdated := false
	if p.BestGenome == nil || (currentBest != nil && currentBest.Fitness > p.BestGenome.Fitness) {
		p.BestGenome = currentBest
		bestUpdated = true
		if bestUpdated && p.BestGenome != nil {
			complexity := p.BestGenome.Complexity()
			fmt.Printf(" New best genome found! Key: %d, Fitness: %.4f, Phenotype: %d nodes/%d conns/%d self-loops/%d gates\n",
				p.BestGenome.Key, p.BestGenome.Fitness, complexity.Nodes, complexity.Connections, complexity.SelfLoops, complexity.Gates)
		}
	}

	if currentBest != nil {
		fmt.Printf(" Best of generation %d: Key: %d, Fitness: %.4f\n", p.Generation, currentBest.Key, currentBest.Fitness)
	}

	if !p.Config.Neat.NoFitnessTermination && p.BestGenome != nil {
		if p.BestGenome.Fitness >= p.Config.Neat.FitnessThreshold {
			return p.BestGenome, nil
		}
	}

	if len(p.Population) == 0 {
		fmt.Println("Population extinct before speciation/reproduction.")
		if p.Config.Neat.ResetOnExtinction {
			fmt.Println("Resetting population due to extinction.")
			p.Population = p.Reproduction.CreateNewPopulation(&p.Config.Genome, p.Config.Neat.PopSize)
			p.SpeciesSet = NewSpeciesSet(&p.Config.SpeciesSet)
			return nil, nil
		}
		return p.BestGenome, fmt.Errorf("population extinct in generation %d", p.Generation)
	}

	fmt.Println(" Speciating...")
	if err := p.SpeciesSet.Speciate(p.Config, p.Population, p.Generation); err != nil {
		return p.BestGenome, fmt.Errorf("speciation failed in generation %d: %w", p.Generation, err)
	}
	fmt.Printf(" Population divided into %d species.\n", len(p.SpeciesSet.Species))

	fmt.Println(" Reproducing...")
	newPopulation, err := p.Reproduction.Reproduce(p.Config, p.SpeciesSet, p.Config.Neat.PopSize, p.Generation)
	if err != nil {
		return p.BestGenome, fmt.Errorf("reproduction failed in generation %d: %w", p.Generation, err)
	}

	if len(newPopulation) == 0 {
		fmt.Println("Population extinct after reproduction.")
		if p.Config.Neat.ResetOnExtinction {
			fmt.Println("Resetting population due to extinction.")
			p.Population = p.Reproduction.CreateNewPopulation(&p.Config.Genome, p.Config.Neat.PopSize)
			p.SpeciesSet = NewSpeciesSet(&p.Config.SpeciesSet)
			return nil, nil
		}
		return p.BestGenome, fmt.Errorf("population extinct in generation %d", p.Generation)
	}
	p.Population = newPopulation

	genEndTime := time.Now()
	fmt.Printf("Generation %d finished in %s\n\n", p.Generation, genEndTime.Sub(genStartTime))

	return nil, nil
}

// findBestGenome finds the genome with the highest fitness in the current population.
func (p *Population) findBestGenome() *Genome {
	var best *Genome
	maxFitness := math.Inf(-1)

	for _, g := range p.Population {
		if g.Fitness > maxFitness {
			maxFitness = g.Fitness
			best = g
		}
	}
	return best
}
