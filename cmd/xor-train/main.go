package main

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/glialnet/neat-go/neat"
)

// buildXORNetwork hand-builds a fixed 2-4-1 feed-forward network: two
// inputs, four logistic hidden units, one logistic output, fully connected
// layer-to-layer. Weights are small random values; Train does the rest.
func buildXORNetwork() (*neat.Network, error) {
	net, err := neat.NewNetwork(2, 1)
	if err != nil {
		return nil, fmt.Errorf("building network: %w", err)
	}
	net.Acyclic = true

	hidden := make([]*neat.Node, 4)
	for i := range hidden {
		h, err := net.AddNode(neat.Hidden, "logistic")
		if err != nil {
			return nil, fmt.Errorf("adding hidden node %d: %w", i, err)
		}
		hidden[i] = h
	}

	out := net.Output(0)
	if err := out.SetSquash("logistic"); err != nil {
		return nil, fmt.Errorf("setting output squash: %w", err)
	}

	for i := 0; i < 2; i++ {
		in := net.Input(i)
		for _, h := range hidden {
			if _, err := net.Connect(in, h, rand.NormFloat64()*0.5); err != nil {
				return nil, fmt.Errorf("connecting input %d to hidden: %w", i, err)
			}
		}
	}
	for _, h := range hidden {
		if _, err := net.Connect(h, out, rand.NormFloat64()*0.5); err != nil {
			return nil, fmt.Errorf("connecting hidden to output: %w", err)
		}
	}

	return net, nil
}

func main() {
	net, err := buildXORNetwork()
	if err != nil {
		log.Fatalf("failed to build network: %v", err)
	}

	dataset := []neat.Sample{
		{Input: []float64{0, 0}, Target: []float64{0}},
		{Input: []float64{0, 1}, Target: []float64{1}},
		{Input: []float64{1, 0}, Target: []float64{1}},
		{Input: []float64{1, 1}, Target: []float64{0}},
	}

	opts := neat.TrainOptions{
		Iterations:     2000,
		TargetError:    0.05,
		HasTargetError: true,
		Rate:           0.3,
		Cost:           neat.CostMSE,
		Optimizer:      &neat.OptimizerConfig{Kind: neat.OptAdam},
		MetricsHook: func(m neat.TrainMetrics) {
			if m.Iteration%200 == 0 {
				fmt.Printf("iteration %d: error=%.5f\n", m.Iteration, m.Error)
			}
		},
	}

	result, err := net.Train(dataset, opts)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	fmt.Printf("\nTraining finished in %d iterations (%dms), final error %.5f\n", result.Iterations, result.TimeMS, result.Error)
	fmt.Println("\n Input | Expected | Output")
	fmt.Println("-----------------------------")
	for _, s := range dataset {
		out, err := net.Activate(s.Input)
		if err != nil {
			fmt.Printf(" %v |   %.1f    | Error: %v\n", s.Input, s.Target[0], err)
			continue
		}
		fmt.Printf(" %v |   %.1f    | %.4f\n", s.Input, s.Target[0], out[0])
	}
}
