package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/glialnet/neat-go/neat"
	"github.com/glialnet/neat-go/neat/ga"
)

// XOR inputs and expected outputs.
var xorInputs = [][]float64{
	{0.0, 0.0},
	{0.0, 1.0},
	{1.0, 0.0},
	{1.0, 1.0},
}
var xorOutputs = [][]float64{
	{0.0},
	{1.0},
	{1.0},
	{0.0},
}

// evalGenomes calculates the fitness for each genome in the population
// based on how well it performs on the XOR task.
func evalGenomes(genomes map[int]*ga.Genome) error {
	if len(genomes) == 0 {
		return errors.New("cannot evaluate fitness for empty population")
	}

	for _, g := range genomes {
		if g.Config == nil {
			g.Fitness = 0.0
			fmt.Printf("Warning: Genome %d missing config reference during fitness evaluation.\n", g.Key)
			continue
		}

		net, err := g.Phenotype()
		if err != nil {
			fmt.Printf("Warning: Failed to build phenotype for genome %d: %v. Assigning fitness 0.\n", g.Key, err)
			g.Fitness = 0.0
			continue
		}

		sumSquaredError := 0.0
		for i, inputs := range xorInputs {
			outputs, err := net.Activate(inputs)
			if err != nil {
				fmt.Printf("Warning: Network activation failed for genome %d: %v. Assigning fitness 0.\n", g.Key, err)
				g.Fitness = 0.0
				sumSquaredError = 4.0 * 4.0
				break
			}
			if len(outputs) == 0 {
				fmt.Printf("Warning: Network for genome %d produced no output. Assigning fitness 0.\n", g.Key)
				g.Fitness = 0.0
				sumSquaredError = 4.0 * 4.0
				break
			}

			errVal := outputs[0] - xorOutputs[i][0]
			sumSquaredError += errVal * errVal
		}

		baseFitness := 4.0 - sumSquaredError
		if baseFitness < 0 {
			baseFitness = 0
		}
		g.Fitness = baseFitness * baseFitness
	}
	return nil
}

func main() {
	configPath := "./configs/xor-config"
	checkpointPrefix := "xor_checkpoint"
	checkpointFile := checkpointPrefix + ".gz"
	fmt.Printf("Loading configuration from: %s\n", configPath)

	config, err := neat.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var pop *ga.Population
	if _, err := os.Stat(checkpointFile); err == nil {
		fmt.Printf("Attempting to load population state from %s\n", checkpointFile)
		pop, err = ga.LoadCheckpoint(checkpointFile, configPath)
		if err != nil {
			log.Printf("WARN: Failed to load checkpoint: %v. Starting new evolution.\n", err)
			pop = nil
		}
	} else {
		fmt.Println("No checkpoint file found. Starting new evolution.")
	}

	if pop == nil {
		pop, err = ga.NewPopulation(config)
		if err != nil {
			log.Fatalf("Failed to create new population: %v", err)
		}
	}

	numGenerations := 300
	startGen := pop.Generation + 1
	remGenerations := numGenerations - startGen + 1
	if remGenerations <= 0 {
		fmt.Println("Loaded checkpoint is already at or beyond the target number of generations.")
	} else {
		fmt.Printf("Running for %d generations (%d to %d)...\n", remGenerations, startGen, numGenerations)

		winnerFound := false
		for i := 0; i < remGenerations; i++ {
			winner, err := pop.RunGeneration(evalGenomes)
			if err != nil {
				log.Fatalf("Generation %d failed: %v", pop.Generation, err)
			}

			if winner != nil {
				fmt.Println("\nFitness threshold met!")
				pop.BestGenome = winner
				winnerFound = true
				break
			}

			if pop.Generation%2 == 0 {
				checkpointFilename := fmt.Sprintf("%s_gen%d.gz", checkpointPrefix, pop.Generation)
				if err := pop.SaveCheckpoint(checkpointFilename); err != nil {
					log.Printf("WARN: Failed to save checkpoint for generation %d: %v", pop.Generation, err)
				}
			}
		}
		if !winnerFound {
			fmt.Printf("\nReached maximum generations (%d).\n", numGenerations)
		}
	}

	finalCheckpointFile := fmt.Sprintf("%s_final.gz", checkpointPrefix)
	if err := pop.SaveCheckpoint(finalCheckpointFile); err != nil {
		log.Printf("WARN: Failed to save final checkpoint: %v", err)
	}

	winner := pop.BestGenome
	fmt.Println("\n--- Evolution Complete ---")
	if winner != nil {
		fmt.Printf("Best genome found (Key: %d, Fitness: %.4f, Gen: %d):\n", winner.Key, winner.Fitness, pop.Generation)
		fmt.Printf(" Nodes: %d, Connections: %d\n", len(winner.Nodes), len(winner.Connections))

		winnerNet, err := winner.Phenotype()
		if err != nil {
			log.Fatalf("Failed to build phenotype from winner genome: %v", err)
		}

		fmt.Println("\nWinner network output:")
		fmt.Println(" Input | Expected | Output")
		fmt.Println("-----------------------------")
		for i, inputs := range xorInputs {
			output, err := winnerNet.Activate(inputs)
			if err != nil {
				fmt.Printf(" %v |   %.1f    | Error: %v\n", inputs, xorOutputs[i][0], err)
			} else {
				fmt.Printf(" %v |   %.1f    | %.4f\n", inputs, xorOutputs[i][0], output[0])
			}
		}

		fmt.Println("\nWinner Genome Output Node Details:")
		for _, key := range winner.Config.OutputKeys {
			if node, ok := winner.Nodes[key]; ok {
				fmt.Printf("  Node %d: Activation='%s', Response=%.3f, Bias=%.3f\n",
					key, node.Activation, node.Response, node.Bias)
			} else {
				fmt.Printf("  Output node key %d not found in winner genome!\n", key)
			}
		}
	} else {
		fmt.Println("No winner found within the given generations.")
	}
}
