package ga

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/glialnet/neat-go/neat"
)

// GeneType defines the type of gene (Node or Connection)
type GeneType int

const (
	NodeGeneType GeneType = iota
	ConnectionGeneType
)

// --------------------------- NodeGene ---------------------------

// NodeGene represents a node (neuron) in the neural network genome.
type NodeGene struct {
	Key         int // Unique identifier for this node gene (negative for inputs, >=0 for outputs/hidden)
	Bias        float64
	Response    float64
	Activation  string // Name of the activation function
	Aggregation string // Name of the aggregation function
}

// NewNodeGene creates a new NodeGene with attributes initialized according to the config.
func NewNodeGene(key int, config *neat.GenomeConfig) *NodeGene {
	ng := &NodeGene{
		Key:         key,
		Activation:  initStringAttribute(config.ActivationDefault, config.ActivationOptions),
		Aggregation: initStringAttribute(config.AggregationDefault, config.AggregationOptions),
	}
	ng.Bias = initFloatAttribute(config.BiasInitMean, config.BiasInitStdev, config.BiasInitType, config.BiasMinValue, config.BiasMaxValue)
	ng.Response = initFloatAttribute(config.ResponseInitMean, config.ResponseInitStdev, config.ResponseInitType, config.ResponseMinValue, config.ResponseMaxValue)
	return ng
}

// String returns a string representation of the NodeGene.
func (ng *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(Key: %d, Bias: %.3f, Response: %.3f, Activation: %s, Aggregation: %s)",
		ng.Key, ng.Bias, ng.Response, ng.Activation, ng.Aggregation)
}

// Copy creates a deep copy of the NodeGene.
func (ng *NodeGene) Copy() *NodeGene {
	return &NodeGene{
		Key:         ng.Key,
		Bias:        ng.Bias,
		Response:    ng.Response,
		Activation:  ng.Activation,
		Aggregation: ng.Aggregation,
	}
}

// Mutate adjusts the attributes of the NodeGene based on mutation rates in the config.
func (ng *NodeGene) Mutate(config *neat.GenomeConfig) {
	ng.Bias = mutateFloatAttribute(ng.Bias, config.BiasMutateRate, config.BiasReplaceRate, config.BiasMutatePower, config.BiasInitMean, config.BiasInitStdev, config.BiasInitType, config.BiasMinValue, config.BiasMaxValue)
	ng.Response = mutateFloatAttribute(ng.Response, config.ResponseMutateRate, config.ResponseReplaceRate, config.ResponseMutatePower, config.ResponseInitMean, config.ResponseInitStdev, config.ResponseInitType, config.ResponseMinValue, config.ResponseMaxValue)
	ng.Activation = mutateStringAttribute(ng.Activation, config.ActivationMutateRate, config.ActivationOptions)
	ng.Aggregation = mutateStringAttribute(ng.Aggregation, config.AggregationMutateRate, config.AggregationOptions)
}

// Distance calculates the genetic distance between two NodeGenes based on their attributes.
func (ng *NodeGene) Distance(other *NodeGene, config *neat.GenomeConfig) float64 {
	d := math.Abs(ng.Bias-other.Bias) + math.Abs(ng.Response-other.Response)
	if ng.Activation != other.Activation {
		d += 1.0
	}
	if ng.Aggregation != other.Aggregation {
		d += 1.0
	}
	return d * config.CompatibilityWeightCoefficient
}

// Crossover creates a new NodeGene by randomly inheriting attributes from two parent NodeGenes.
func (ng *NodeGene) Crossover(other *NodeGene) *NodeGene {
	child := ng.Copy()

	if rand.Float64() < 0.5 {
		child.Bias = other.Bias
	}
	if rand.Float64() < 0.5 {
		child.Response = other.Response
	}
	if rand.Float64() < 0.5 {
		child.Activation = other.Activation
	}
	if rand.Float64() < 0.5 {
		child.Aggregation = other.Aggregation
	}

	return child
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionGene represents a connection between two nodes in the genome.
// The Key is a tuple (in Python), represented here as ConnectionKey struct.
type ConnectionGene struct {
	Key     ConnectionKey // Represents the (in_node_id, out_node_id) tuple
	Weight  float64
	Enabled bool
	// GaterKey names the node gene whose activation gates this connection's
	// signal (the genetic counterpart of Network.Gate). Nil means ungated.
	// A gater pointing at a node the genome does not carry (e.g. one
	// inherited through crossover from the other parent) is treated as
	// ungated by Phenotype.
	GaterKey *int
	// InnovationNumber is handled implicitly by using the Key (ConnectionKey) as the map key in Genome.
}

// ConnectionKey uniquely identifies a connection gene (innovation).
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

// NewConnectionGene creates a new ConnectionGene with attributes initialized according to the config.
func NewConnectionGene(key ConnectionKey, config *neat.GenomeConfig) *ConnectionGene {
	cg := &ConnectionGene{
		Key:     key,
		Enabled: initBoolAttribute(config.EnabledDefault),
	}
	cg.Weight = initFloatAttribute(config.WeightInitMean, config.WeightInitStdev, config.WeightInitType, config.WeightMinValue, config.WeightMaxValue)
	return cg
}

// String returns a string representation of the ConnectionGene.
func (cg *ConnectionGene) String() string {
	gater := "none"
	if cg.GaterKey != nil {
		gater = fmt.Sprintf("%d", *cg.GaterKey)
	}
	return fmt.Sprintf("ConnGene(Key: %d->%d, Weight: %.3f, Enabled: %t, Gater: %s)",
		cg.Key.InNodeID, cg.Key.OutNodeID, cg.Weight, cg.Enabled, gater)
}

// Copy creates a deep copy of the ConnectionGene.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	return &ConnectionGene{
		Key:      cg.Key,
		Weight:   cg.Weight,
		Enabled:  cg.Enabled,
		GaterKey: copyGaterKey(cg.GaterKey),
	}
}

// Mutate adjusts the attributes of the ConnectionGene based on mutation rates in the config.
// It accepts the genome to check for cycles when enabling connections in feedforward mode,
// and to pick a legal gater node when the gating attribute mutates.
func (cg *ConnectionGene) Mutate(genome *Genome, config *neat.GenomeConfig) {
	cg.Weight = mutateFloatAttribute(cg.Weight, config.WeightMutateRate, config.WeightReplaceRate, config.WeightMutatePower, config.WeightInitMean, config.WeightInitStdev, config.WeightInitType, config.WeightMinValue, config.WeightMaxValue)
	cg.Enabled = mutateBoolAttribute(cg.Enabled, config.EnabledMutateRate, config.EnabledRateToTrueAdd, config.EnabledRateToFalseAdd, genome, cg)
	cg.GaterKey = mutateGaterAttribute(cg.GaterKey, config.GaterMutateRate, genome)
}

// Distance calculates the genetic distance between two ConnectionGenes. A
// differing gater assignment counts the same as a differing Enabled flag:
// it changes whether, and how, the connection's signal reaches the network.
func (cg *ConnectionGene) Distance(other *ConnectionGene, config *neat.GenomeConfig) float64 {
	d := math.Abs(cg.Weight - other.Weight)
	if cg.Enabled != other.Enabled {
		d += 1.0
	}
	if !gaterKeysEqual(cg.GaterKey, other.GaterKey) {
		d += 1.0
	}
	return d * config.CompatibilityWeightCoefficient
}

// Crossover creates a new ConnectionGene by randomly inheriting attributes from two parent ConnectionGenes.
func (cg *ConnectionGene) Crossover(other *ConnectionGene) *ConnectionGene {
	child := cg.Copy()

	if rand.Float64() < 0.5 {
		child.Weight = other.Weight
	}
	if rand.Float64() < 0.5 {
		child.Enabled = other.Enabled
	}
	if rand.Float64() < 0.5 {
		child.GaterKey = copyGaterKey(other.GaterKey)
	}

	return child
}

func gaterKeysEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyGaterKey(k *int) *int {
	if k == nil {
		return nil
	}
	v := *k
	return &v
}

// mutateGaterAttribute resamples a connection's gater with probability
// mutateRate: a gated connection may become ungated, an ungated connection
// may acquire a gater, or an existing gater may be reassigned to a
// different node. The candidate pool is every node gene currently in the
// genome (hidden and output nodes only carry NodeGene entries; inputs have
// no activation of their own in the genetic representation and so are
// never eligible to gate).
func mutateGaterAttribute(current *int, mutateRate float64, genome *Genome) *int {
	if mutateRate <= 0 || rand.Float64() >= mutateRate {
		return current
	}
	if len(genome.Nodes) == 0 {
		return nil
	}
	// One extra outcome (ungated) alongside one per candidate node: each
	// outcome, ungated or gated by one particular node (possibly the current
	// gater again), is equally likely.
	candidates := make([]int, 0, len(genome.Nodes))
	for key := range genome.Nodes {
		candidates = append(candidates, key)
	}
	pick := rand.Intn(len(candidates) + 1)
	if pick == len(candidates) {
		return nil
	}
	chosen := candidates[pick]
	return &chosen
}

// --------------------------- Attribute Helpers ---------------------------
// These functions mimic the behavior of the Python Attribute classes for initialization and mutation.

func initFloatAttribute(mean, stdev float64, initType string, minVal, maxVal float64) float64 {
	var val float64
	switch strings.ToLower(initType) {
	case "gaussian", "normal", "":
		val = rand.NormFloat64()*stdev + mean
	case "uniform":
		rangeMin := math.Max(minVal, mean-(2*stdev))
		rangeMax := math.Min(maxVal, mean+(2*stdev))
		if rangeMax < rangeMin {
			rangeMax = rangeMin
		}
		val = rand.Float64()*(rangeMax-rangeMin) + rangeMin
	default:
		fmt.Printf("Warning: Unknown float init_type '%s', using gaussian\n", initType)
		val = rand.NormFloat64()*stdev + mean
	}
	return clamp(val, minVal, maxVal)
}

func mutateFloatAttribute(value, mutateRate, replaceRate, mutatePower, initMean, initStdev float64, initType string, minVal, maxVal float64) float64 {
	r := rand.Float64()
	if r < mutateRate {
		perturbation := rand.NormFloat64() * mutatePower
		value += perturbation
		return clamp(value, minVal, maxVal)
	}
	if r < mutateRate+replaceRate {
		return initFloatAttribute(initMean, initStdev, initType, minVal, maxVal)
	}
	return value
}

func initBoolAttribute(defaultValStr string) bool {
	return parseBoolAttribute(defaultValStr)
}

func mutateBoolAttribute(value bool, mutateRate, rateToTrueAdd, rateToFalseAdd float64, genome *Genome, cg *ConnectionGene) bool {
	effectiveMutateRate := mutateRate
	if value {
		effectiveMutateRate += rateToFalseAdd
	} else {
		effectiveMutateRate += rateToTrueAdd
	}

	if effectiveMutateRate > 0 && rand.Float64() < effectiveMutateRate {
		newState := rand.Float64() < 0.5

		if !value && newState && genome.Config.FeedForward {
			if createsCycle(genome, cg.Key.InNodeID, cg.Key.OutNodeID) {
				return false
			}
		}
		return newState
	}
	return value
}

func initStringAttribute(defaultVal string, options []string) string {
	if len(options) == 0 {
		fmt.Println("Warning: Attempting to initialize string attribute with no options.")
		return ""
	}
	defaultValLower := strings.ToLower(defaultVal)
	if defaultValLower == "random" || defaultValLower == "none" || defaultValLower == "" {
		return options[rand.Intn(len(options))]
	}
	for _, opt := range options {
		if opt == defaultVal {
			return defaultVal
		}
	}
	fmt.Printf("Warning: Default string value '%s' not in options %v. Choosing random.\n", defaultVal, options)
	return options[rand.Intn(len(options))]
}

func mutateStringAttribute(value string, mutateRate float64, options []string) string {
	if len(options) <= 1 {
		return value
	}
	if mutateRate > 0 && rand.Float64() < mutateRate {
		var newValue string
		for {
			newValue = options[rand.Intn(len(options))]
			if newValue != value {
				break
			}
			allSame := true
			for _, opt := range options {
				if opt != value {
					allSame = false
					break
				}
			}
			if allSame {
				break
			}
		}
		return newValue
	}
	return value
}
