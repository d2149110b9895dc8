// Package neat provides a runtime engine for evaluating and training small
// recurrent neural networks built as dynamic graphs of neurons and weighted,
// gateable connections.
//
// The graph supports heterogeneous activations, self-loops, one neuron
// gating (modulating) another connection's effective weight, and arbitrary
// topology including cycles. Two forward paths are interchangeable: a
// generic recurrent evaluator that understands gating, self-loops and
// dropout, and a packed-slab fast path for acyclic, gate-free networks.
//
// Training combines a BPTT-lite backward pass (eligibility and extended
// traces) with a library of adaptive optimizers, gradient clipping,
// mixed-precision loss scaling, and an iteration orchestrator with error
// smoothing, early stopping and plateau detection.
//
// The neuro-evolutionary search driver (population, speciation,
// reproduction) is not part of this package; it is a consumer of it and
// lives in the subpackage github.com/glialnet/neat-go/neat/ga.
//
// Basic usage:
//
//	n, _ := neat.NewNetwork(2, 1)
//	h, _ := n.AddNode(neat.Hidden, "logistic")
//	n.Connect(n.Input(0), h, 0.5)
//	n.Connect(n.Input(1), h, -0.5)
//	n.Connect(h, n.Output(0), 1.0)
//
//	out, err := n.Activate([]float64{0, 1})
//
//	result, err := n.Train(dataset, neat.TrainOptions{
//		Iterations: 2000,
//		Rate:       0.3,
//		Cost:       neat.CostMSE,
//		Optimizer:  &neat.OptimizerConfig{Kind: neat.OptAdam},
//	})
package neat
