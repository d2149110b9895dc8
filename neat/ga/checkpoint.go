package ga

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/glialnet/neat-go/neat"
)

// PopulationSaveData is a helper struct to hold only the parts of Population needed for saving.
// Config itself is not saved, it's reloaded from the original ini file.
type PopulationSaveData struct {
	Population   map[int]*Genome
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Generation   int
	BestGenome   *Genome
}

// SaveCheckpoint saves the current state of the Population to a file.
func (p *Population) SaveCheckpoint(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	defer gzWriter.Close()

	saveData := PopulationSaveData{
		Population:   p.Population,
		SpeciesSet:   p.SpeciesSet,
		Reproduction: p.Reproduction,
		Generation:   p.Generation,
		BestGenome:   p.BestGenome,
	}

	gob.Register(map[int]*Genome{})
	gob.Register(map[ConnectionKey]*ConnectionGene{})
	gob.Register(map[int]*NodeGene{})
	gob.Register(map[int]*Species{})
	gob.Register(map[int]int{})
	gob.Register([]int{})

	encoder := gob.NewEncoder(gzWriter)
	if err := encoder.Encode(saveData); err != nil {
		return fmt.Errorf("failed to encode population data: %w", err)
	}

	fmt.Printf("Checkpoint saved to %s\n", filePath)
	if p.BestGenome != nil {
		c := p.BestGenome.Complexity()
		fmt.Printf(" Best genome %d phenotype: %d nodes/%d conns/%d self-loops/%d gates\n",
			p.BestGenome.Key, c.Nodes, c.Connections, c.SelfLoops, c.Gates)
	}
	return nil
}

// LoadCheckpoint loads a Population state from a checkpoint file.
// It requires the original configuration file path to reconstruct the Config object.
func LoadCheckpoint(checkpointPath string, configPath string) (*Population, error) {
	config, err := neat.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s' for checkpoint: %w", configPath, err)
	}

	file, err := os.Open(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", checkpointPath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	saveData := PopulationSaveData{}
	decoder := gob.NewDecoder(gzReader)

	gob.Register(map[int]*Genome{})
	gob.Register(map[ConnectionKey]*ConnectionGene{})
	gob.Register(map[int]*NodeGene{})
	gob.Register(map[int]*Species{})
	gob.Register(map[int]int{})
	gob.Register([]int{})

	if err := decoder.Decode(&saveData); err != nil {
		return nil, fmt.Errorf("failed to decode population data from checkpoint: %w", err)
	}

	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to re-initialize stagnation from loaded config: %w", err)
	}

	if saveData.Reproduction != nil {
		saveData.Reproduction.Stagnation = stagnation
	}

	// Gob doesn't preserve the GenomeConfig pointer shared across genomes, so
	// every loaded genome must be re-linked to the freshly parsed config.
	if saveData.Population != nil {
		for _, genome := range saveData.Population {
			genome.Config = &config.Genome
		}
	}
	if saveData.BestGenome != nil {
		saveData.BestGenome.Config = &config.Genome
	}

	p := &Population{
		Config:       config,
		Population:   saveData.Population,
		SpeciesSet:   saveData.SpeciesSet,
		Reproduction: saveData.Reproduction,
		Stagnation:   stagnation,
		Generation:   saveData.Generation,
		BestGenome:   saveData.BestGenome,
	}

	fmt.Printf("Checkpoint loaded from %s (Generation %d)\n", checkpointPath, p.Generation)
	if p.BestGenome != nil {
		c := p.BestGenome.Complexity()
		fmt.Printf(" Best genome %d phenotype: %d nodes/%d conns/%d self-loops/%d gates\n",
			p.BestGenome.Key, c.Nodes, c.Connections, c.SelfLoops, c.Gates)
	}
	return p, nil
}
