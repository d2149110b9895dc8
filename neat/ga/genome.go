package ga

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/glialnet/neat-go/neat"
)

// Genome represents an individual organism in the population.
// It consists of NodeGenes and ConnectionGenes.
type Genome struct {
	Key         int                               // Unique identifier for this genome.
	Nodes       map[int]*NodeGene                 // Map node ID -> NodeGene
	Connections map[ConnectionKey]*ConnectionGene // Map connection key -> ConnectionGene
	Fitness     float64                           // Fitness score of the genome.
	Config      *neat.GenomeConfig
}

// NewGenome creates a new Genome instance with the specified key and config reference.
func NewGenome(key int, config *neat.GenomeConfig) *Genome {
	return &Genome{
		Key:         key,
		Nodes:       make(map[int]*NodeGene),
		Connections: make(map[ConnectionKey]*ConnectionGene),
		Fitness:     0.0,
		Config:      config,
	}
}

// ConfigureNew initializes a new genome based on the configuration.
// It creates input, output, and potentially hidden nodes, and sets up initial connections.
func (g *Genome) ConfigureNew() {
	for _, nodeKey := range g.Config.OutputKeys {
		g.Nodes[nodeKey] = NewNodeGene(nodeKey, g.Config)
	}

	if g.Config.NumHidden > 0 {
		for i := 0; i < g.Config.NumHidden; i++ {
			nodeKey := g.Config.GetNewNodeKey()
			if _, exists := g.Nodes[nodeKey]; exists {
				panic(fmt.Sprintf("Attempted to create duplicate node key: %d", nodeKey))
			}
			g.Nodes[nodeKey] = NewNodeGene(nodeKey, g.Config)
		}
	}

	g.setupInitialConnections()
}

// setupInitialConnections creates the initial connections based on the config string.
func (g *Genome) setupInitialConnections() {
	connType := g.Config.InitialConnection
	parts := strings.Fields(connType)
	baseConnType := parts[0]
	connectionFraction := 1.0

	inputKeys := g.Config.InputKeys
	outputKeys := g.Config.OutputKeys
	hiddenKeys := []int{}
	for nk := range g.Nodes {
		isOutput := false
		for _, ok := range outputKeys {
			if nk == ok {
				isOutput = true
				break
			}
		}
		if !isOutput {
			hiddenKeys = append(hiddenKeys, nk)
		}
	}
	sort.Ints(hiddenKeys)

	switch baseConnType {
	case "unconnected":
	case "fs_neat_nohidden", "fs_neat":
		for _, ik := range inputKeys {
			for _, ok := range outputKeys {
				connKey := ConnectionKey{InNodeID: ik, OutNodeID: ok}
				g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
			}
		}
	case "fs_neat_hidden":
		for _, ik := range inputKeys {
			for _, hk := range hiddenKeys {
				connKey := ConnectionKey{InNodeID: ik, OutNodeID: hk}
				g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
			}
		}
		for _, hk := range hiddenKeys {
			for _, ok := range outputKeys {
				connKey := ConnectionKey{InNodeID: hk, OutNodeID: ok}
				g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
			}
		}
	case "full_nodirect", "full":
		for _, ik := range inputKeys {
			for _, hk := range hiddenKeys {
				connKey := ConnectionKey{InNodeID: ik, OutNodeID: hk}
				g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
			}
		}
		for _, hk1 := range hiddenKeys {
			for _, hk2 := range hiddenKeys {
				connKey := ConnectionKey{InNodeID: hk1, OutNodeID: hk2}
				g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
			}
			for _, ok := range outputKeys {
				connKey := ConnectionKey{InNodeID: hk1, OutNodeID: ok}
				g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
			}
		}
		// With no hidden node to route through, inputs connect straight to outputs.
		if len(hiddenKeys) == 0 {
			for _, ik := range inputKeys {
				for _, ok := range outputKeys {
					connKey := ConnectionKey{InNodeID: ik, OutNodeID: ok}
					g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
				}
			}
		}
	case "full_direct":
		for _, ik := range inputKeys {
			for _, hk := range hiddenKeys {
				connKey := ConnectionKey{InNodeID: ik, OutNodeID: hk}
				g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
			}
			for _, ok := range outputKeys {
				connKey := ConnectionKey{InNodeID: ik, OutNodeID: ok}
				g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
			}
		}
		for _, hk1 := range hiddenKeys {
			for _, hk2 := range hiddenKeys {
				connKey := ConnectionKey{InNodeID: hk1, OutNodeID: hk2}
				g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
			}
			for _, ok := range outputKeys {
				connKey := ConnectionKey{InNodeID: hk1, OutNodeID: ok}
				g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
			}
		}
	case "partial_nodirect", "partial":
		fmt.Println("Warning: initial_connection 'partial_nodirect'/'partial' not fully implemented yet (using full_nodirect logic).")
		for _, ik := range inputKeys {
			for _, hk := range hiddenKeys {
				if rand.Float64() < connectionFraction {
					connKey := ConnectionKey{InNodeID: ik, OutNodeID: hk}
					g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
				}
			}
		}
		for _, hk1 := range hiddenKeys {
			for _, hk2 := range hiddenKeys {
				if rand.Float64() < connectionFraction {
					connKey := ConnectionKey{InNodeID: hk1, OutNodeID: hk2}
					g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
				}
			}
			for _, ok := range outputKeys {
				if rand.Float64() < connectionFraction {
					connKey := ConnectionKey{InNodeID: hk1, OutNodeID: ok}
					g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
				}
			}
		}
	case "partial_direct":
		fmt.Println("Warning: initial_connection 'partial_direct' not fully implemented yet (using full_direct logic).")
		for _, ik := range inputKeys {
			for _, hk := range hiddenKeys {
				if rand.Float64() < connectionFraction {
					connKey := ConnectionKey{InNodeID: ik, OutNodeID: hk}
					g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
				}
			}
			for _, ok := range outputKeys {
				if rand.Float64() < connectionFraction {
					connKey := ConnectionKey{InNodeID: ik, OutNodeID: ok}
					g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
				}
			}
		}
		for _, hk1 := range hiddenKeys {
			for _, hk2 := range hiddenKeys {
				if rand.Float64() < connectionFraction {
					connKey := ConnectionKey{InNodeID: hk1, OutNodeID: hk2}
					g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
				}
			}
			for _, ok := range outputKeys {
				if rand.Float64() < connectionFraction {
					connKey := ConnectionKey{InNodeID: hk1, OutNodeID: ok}
					g.Connections[connKey] = NewConnectionGene(connKey, g.Config)
				}
			}
		}
	default:
		panic(fmt.Sprintf("Invalid initial_connection type in genome configuration: %s", connType))
	}
}

// ConfigureCrossover creates a new genome by combining genes from two parent genomes.
func (g *Genome) ConfigureCrossover(parent1, parent2 *Genome) {
	if parent1.Fitness < parent2.Fitness {
		parent1, parent2 = parent2, parent1
	}

	g.Config = parent1.Config

	for key, node1 := range parent1.Nodes {
		g.Nodes[key] = node1.Copy()
	}

	for key, conn1 := range parent1.Connections {
		conn2, exists := parent2.Connections[key]
		if exists {
			g.Connections[key] = conn1.Crossover(conn2)
		} else {
			g.Connections[key] = conn1.Copy()
		}
	}
}

// Mutate applies mutations to the genome, including structural and attribute mutations.
func (g *Genome) Mutate() {
	singleMutation := g.Config.SingleStructuralMutation
	structureMutated := false

	if rand.Float64() < g.Config.NodeAddProb {
		g.mutateAddNode()
		structureMutated = true
	}

	if !singleMutation || !structureMutated {
		if rand.Float64() < g.Config.ConnAddProb {
			g.mutateAddConnection()
			structureMutated = true
		}
	}

	if !singleMutation || !structureMutated {
		if rand.Float64() < g.Config.NodeDeleteProb {
			if err := g.mutateDeleteNode(); err != nil {
				fmt.Printf("Info: genome %d skipped delete-node mutation: %v\n", g.Key, err)
			}
			structureMutated = true
		}
	}

	if !singleMutation || !structureMutated {
		if rand.Float64() < g.Config.ConnDeleteProb {
			if err := g.mutateDeleteConnection(); err != nil {
				fmt.Printf("Info: genome %d skipped delete-connection mutation: %v\n", g.Key, err)
			}
			structureMutated = true
		}
	}

	for _, node := range g.Nodes {
		node.Mutate(g.Config)
	}

	for _, conn := range g.Connections {
		conn.Mutate(g, g.Config)
	}
}

// mutateAddNode attempts to add a new node by splitting an existing connection.
func (g *Genome) mutateAddNode() {
	if len(g.Connections) == 0 {
		return
	}

	keys := make([]ConnectionKey, 0, len(g.Connections))
	for k := range g.Connections {
		keys = append(keys, k)
	}
	connToSplitKey := keys[rand.Intn(len(keys))]
	connToSplit := g.Connections[connToSplitKey]

	connToSplit.Enabled = false

	newNodeKey := g.Config.GetNewNodeKey()
	newNode := NewNodeGene(newNodeKey, g.Config)
	g.Nodes[newNodeKey] = newNode

	conn1Key := ConnectionKey{InNodeID: connToSplit.Key.InNodeID, OutNodeID: newNodeKey}
	conn1 := NewConnectionGene(conn1Key, g.Config)
	conn1.Weight = 1.0
	conn1.Enabled = true
	g.Connections[conn1Key] = conn1

	conn2Key := ConnectionKey{InNodeID: newNodeKey, OutNodeID: connToSplit.Key.OutNodeID}
	conn2 := NewConnectionGene(conn2Key, g.Config)
	conn2.Weight = connToSplit.Weight
	conn2.Enabled = true
	g.Connections[conn2Key] = conn2
}

// mutateAddConnection attempts to add a new connection between two previously unconnected nodes.
func (g *Genome) mutateAddConnection() {
	possibleInputs := make([]int, 0, len(g.Config.InputKeys)+len(g.Nodes))
	possibleInputs = append(possibleInputs, g.Config.InputKeys...)
	for nk := range g.Nodes {
		isInput := false
		for _, ik := range g.Config.InputKeys {
			if nk == ik {
				isInput = true
				break
			}
		}
		if !isInput {
			possibleInputs = append(possibleInputs, nk)
		}
	}

	possibleOutputs := make([]int, 0, len(g.Nodes))
	for nk := range g.Nodes {
		possibleOutputs = append(possibleOutputs, nk)
	}

	if len(possibleInputs) == 0 || len(possibleOutputs) == 0 {
		return
	}

	maxAttempts := 20
	for i := 0; i < maxAttempts; i++ {
		inNodeKey := possibleInputs[rand.Intn(len(possibleInputs))]
		outNodeKey := possibleOutputs[rand.Intn(len(possibleOutputs))]

		isOutputAnInput := false
		for _, ik := range g.Config.InputKeys {
			if outNodeKey == ik {
				isOutputAnInput = true
				break
			}
		}
		if isOutputAnInput {
			continue
		}

		connKey := ConnectionKey{InNodeID: inNodeKey, OutNodeID: outNodeKey}

		if _, exists := g.Connections[connKey]; exists {
			continue
		}

		if g.Config.FeedForward {
			if createsCycle(g, inNodeKey, outNodeKey) {
				continue
			}
		}

		newConn := NewConnectionGene(connKey, g.Config)
		g.Connections[connKey] = newConn
		return
	}
}

// mutateDeleteNode removes a randomly chosen hidden node along with every
// connection gene that has it as an endpoint; connection genes it gates are
// kept, with their GaterKey cleared. Output
// nodes always carry a NodeGene entry but are never eligible for deletion;
// if the genome has no hidden node left to remove, the mutation has no
// legal target and reports ErrUnsupportedMutation.
func (g *Genome) mutateDeleteNode() error {
	outputSet := make(map[int]bool, len(g.Config.OutputKeys))
	for _, ok := range g.Config.OutputKeys {
		outputSet[ok] = true
	}
	hiddenKeys := make([]int, 0, len(g.Nodes))
	for key := range g.Nodes {
		if !outputSet[key] {
			hiddenKeys = append(hiddenKeys, key)
		}
	}
	if len(hiddenKeys) == 0 {
		return fmt.Errorf("ga: genome %d has no hidden node to delete: %w", g.Key, neat.ErrUnsupportedMutation)
	}

	victim := hiddenKeys[rand.Intn(len(hiddenKeys))]
	delete(g.Nodes, victim)

	for key := range g.Connections {
		if key.InNodeID == victim || key.OutNodeID == victim {
			delete(g.Connections, key)
		}
	}
	for _, conn := range g.Connections {
		if conn.GaterKey != nil && *conn.GaterKey == victim {
			conn.GaterKey = nil
		}
	}
	return nil
}

// mutateDeleteConnection removes a single randomly chosen connection gene.
// An empty connection set has no legal target and reports
// ErrUnsupportedMutation rather than silently doing nothing.
func (g *Genome) mutateDeleteConnection() error {
	if len(g.Connections) == 0 {
		return fmt.Errorf("ga: genome %d has no connection to delete: %w", g.Key, neat.ErrUnsupportedMutation)
	}
	keys := make([]ConnectionKey, 0, len(g.Connections))
	for key := range g.Connections {
		keys = append(keys, key)
	}
	victim := keys[rand.Intn(len(keys))]
	delete(g.Connections, victim)
	return nil
}

// Distance calculates the genetic distance between this genome and another.
func (g *Genome) Distance(other *Genome) float64 {
	disjointCount := 0
	weightDiffSum := 0.0
	matchingGeneCount := 0

	for key, conn1 := range g.Connections {
		if conn2, exists := other.Connections[key]; exists {
			weightDiffSum += conn1.Distance(conn2, g.Config)
			matchingGeneCount++
		} else {
			disjointCount++
		}
	}

	for key := range other.Connections {
		if _, exists := g.Connections[key]; !exists {
			disjointCount++
		}
	}

	N := float64(max(len(g.Connections), len(other.Connections)))
	if N < 1.0 {
		N = 1.0
	}

	compatibility := (g.Config.CompatibilityDisjointCoefficient * float64(disjointCount)) / N
	if matchingGeneCount > 0 {
		averageWeightDiff := weightDiffSum / float64(matchingGeneCount)
		compatibility += g.Config.CompatibilityWeightCoefficient * averageWeightDiff
	}

	return compatibility
}

// createsCycle reports whether adding inNode->outNode would close a cycle:
// a self-loop, or a path from outNode back to inNode over enabled
// connection genes (breadth-first search).
func createsCycle(genome *Genome, inNode, outNode int) bool {
	if inNode == outNode {
		return true
	}

	visited := make(map[int]bool)
	queue := []int{outNode}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == inNode {
			return true
		}

		if visited[current] {
			continue
		}
		visited[current] = true

		for connKey, conn := range genome.Connections {
			if conn.Enabled && connKey.InNodeID == current {
				queue = append(queue, connKey.OutNodeID)
			}
		}
	}

	return false
}

// legacyToSquash translates a genome-side legacy activation name (drawn from
// GenomeConfig.ActivationOptions, e.g. "sigmoid") to the core engine's squash
// name (e.g. "logistic"); names already present in neat.Squashes pass
// through unchanged.
var legacyToSquash = map[string]string{
	"sigmoid": "logistic",
	"abs":     "absolute",
}

func squashNameFor(legacyActivation string) string {
	if mapped, ok := legacyToSquash[legacyActivation]; ok {
		return mapped
	}
	return legacyActivation
}

// Phenotype builds a runnable, acyclic-or-recurrent *neat.Network from this
// genome's node/connection genes, via Network.Connect rather than direct
// field population: input nodes map onto Config.InputKeys in order, output
// nodes onto Config.OutputKeys in order, and every remaining NodeGene
// becomes one AddNode(Hidden, ...) call, in ascending key order for
// determinism. Disabled connection genes are skipped. A connection gene
// whose GaterKey names a node still present in the genome is wired with
// Network.Gate once the underlying *neat.Connection exists; a gater that
// points at a node the genome has since deleted is treated as ungated.
func (g *Genome) Phenotype() (*neat.Network, error) {
	numInputs := len(g.Config.InputKeys)
	numOutputs := len(g.Config.OutputKeys)
	net, err := neat.NewNetwork(numInputs, numOutputs)
	if err != nil {
		return nil, fmt.Errorf("ga: building phenotype for genome %d: %w", g.Key, err)
	}
	net.Acyclic = g.Config.FeedForward

	keyToNode := make(map[int]*neat.Node, len(g.Config.InputKeys)+len(g.Config.OutputKeys)+len(g.Nodes))
	for i, key := range g.Config.InputKeys {
		keyToNode[key] = net.Input(i)
	}
	for i, key := range g.Config.OutputKeys {
		keyToNode[key] = net.Output(i)
		if ng, ok := g.Nodes[key]; ok {
			n := net.Output(i)
			n.Bias = ng.Bias
			_ = n.SetSquash(squashNameFor(ng.Activation))
		}
	}

	hiddenKeys := make([]int, 0, len(g.Nodes))
	outputSet := make(map[int]bool, numOutputs)
	for _, ok := range g.Config.OutputKeys {
		outputSet[ok] = true
	}
	for key := range g.Nodes {
		if !outputSet[key] {
			hiddenKeys = append(hiddenKeys, key)
		}
	}
	sort.Ints(hiddenKeys)

	for _, key := range hiddenKeys {
		ng := g.Nodes[key]
		squashName := squashNameFor(ng.Activation)
		n, err := net.AddNode(neat.Hidden, squashName)
		if err != nil {
			return nil, fmt.Errorf("ga: adding hidden node %d to phenotype of genome %d: %w", key, g.Key, err)
		}
		n.Bias = ng.Bias
		keyToNode[key] = n
	}

	connKeys := make([]ConnectionKey, 0, len(g.Connections))
	for k := range g.Connections {
		connKeys = append(connKeys, k)
	}
	sort.Slice(connKeys, func(i, j int) bool {
		if connKeys[i].InNodeID != connKeys[j].InNodeID {
			return connKeys[i].InNodeID < connKeys[j].InNodeID
		}
		return connKeys[i].OutNodeID < connKeys[j].OutNodeID
	})

	for _, ck := range connKeys {
		cg := g.Connections[ck]
		if !cg.Enabled {
			continue
		}
		from, okFrom := keyToNode[ck.InNodeID]
		to, okTo := keyToNode[ck.OutNodeID]
		if !okFrom || !okTo {
			continue
		}
		// Connect silently returns (nil, nil) instead of an error when an
		// acyclic network would reject the edge as cyclic; the nil
		// connection below is simply discarded, dropping the gene's
		// phenotypic effect without treating the skip as a failure.
		conn, err := net.Connect(from, to, cg.Weight)
		if err != nil {
			return nil, fmt.Errorf("ga: connecting %d->%d in phenotype of genome %d: %w", ck.InNodeID, ck.OutNodeID, g.Key, err)
		}
		if conn == nil {
			continue
		}
		if cg.GaterKey != nil {
			if gater, ok := keyToNode[*cg.GaterKey]; ok {
				net.Gate(gater, conn)
			}
		}
	}

	return net, nil
}

// PhenotypeComplexity summarizes the structural richness of a genome's
// built network: counts reproduction/stagnation use for parsimony-aware
// selection and complexity-aware stagnation grace, since a genome that
// has evolved gating or self-loops represents more evolutionary
// investment than its raw gene count alone suggests.
type PhenotypeComplexity struct {
	Nodes       int
	Connections int
	SelfLoops   int
	Gates       int
}

// IsRicherThan reports whether c represents more structural investment
// than other: any gating or self-loop beats none outright, then more
// connections, then more nodes.
func (c PhenotypeComplexity) IsRicherThan(other PhenotypeComplexity) bool {
	if (c.Gates > 0) != (other.Gates > 0) {
		return c.Gates > 0
	}
	if (c.SelfLoops > 0) != (other.SelfLoops > 0) {
		return c.SelfLoops > 0
	}
	if c.Connections != other.Connections {
		return c.Connections > other.Connections
	}
	return c.Nodes > other.Nodes
}

// Complexity builds the genome's phenotype and summarizes it. A genome
// that fails to build a phenotype (e.g. a malformed config) reports a
// zero-value complexity rather than propagating the error, since callers
// use this purely for reporting and tie-breaking, not correctness.
func (g *Genome) Complexity() PhenotypeComplexity {
	net, err := g.Phenotype()
	if err != nil {
		return PhenotypeComplexity{}
	}
	return PhenotypeComplexity{
		Nodes:       len(net.Nodes()),
		Connections: len(net.Connections()),
		SelfLoops:   len(net.SelfConnections()),
		Gates:       net.GateCount(),
	}
}
