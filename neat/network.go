package neat

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/glialnet/neat-go/neat/poolbuf"
)

// slab is the packed structure-of-arrays projection of Network.connections
// consumed by the fast forward path (§3's "Packed slab (derived cache)").
// While !slabDirty its columns are a faithful projection of connections
// under the current node-index assignment.
type slab struct {
	weights []float64
	gain    []float64
	from    []uint32
	to      []uint32
	flags   []uint8

	outStart []int32
	outOrder []int32

	used     int
	capacity int
	version  int
}

// Network is a dynamic graph of Nodes and Connections: the arena that owns
// every Node and Connection by strong reference, evaluated by either the
// generic recurrent forward path or (when eligible) the packed-slab fast
// path, and trained by the BPTT-lite backward pass in node.go together
// with the optimizer/clipping machinery in optimizer.go/gradclip.go.
type Network struct {
	InputCount  int
	OutputCount int
	Dropout     float64

	// Acyclic, when true, enforces that Connect never creates a cycle and
	// unlocks the fast-slab forward path once every other eligibility
	// predicate also holds.
	Acyclic bool

	nodes       []*Node
	connections []*Connection
	selfConns   []*Connection
	gates       []*Connection

	topoDirty      bool
	slabDirty      bool
	adjDirty       bool
	nodeIndexDirty bool

	topoOrder    []int // node indices; a true topological order unless topoFellBack
	topoFellBack bool

	slab slab
	pool *poolbuf.SlabPool

	// structGen increments on every structural mutation (Connect/
	// Disconnect/Gate/Ungate); RebuildSlabAsync snapshots it to detect a
	// reentrant mutation landing mid-rebuild during a yield callback.
	structGen int

	// Training-mode scratch (§3), threaded through by the train_set engine
	// in train.go and the orchestrator in orchestrate.go.
	currentGradClip  *ClipConfig
	mixedPrecision   *mixedPrecisionState
	optimizerStep    int
	lastGradNorm     float64
	lastOverflowStep int
	globalEpoch      int
	slabAsyncBuilds  int

	logger Logger
}

// NewNetwork constructs a Network with inputCount Input nodes and
// outputCount Output nodes (default squash "logistic"), with no
// connections between them yet.
func NewNetwork(inputCount, outputCount int) (*Network, error) {
	if inputCount <= 0 || outputCount <= 0 {
		return nil, fmt.Errorf("%w: input/output counts must be positive", ErrInvalidOption)
	}
	net := &Network{
		InputCount:  inputCount,
		OutputCount: outputCount,
		pool:        poolbuf.NewSlabPool(),
		logger:      printfLogger{},
	}
	for i := 0; i < inputCount; i++ {
		n, _ := newNode(Input, "identity")
		n.net = net
		n.index = i
		net.nodes = append(net.nodes, n)
	}
	for i := 0; i < outputCount; i++ {
		n, err := newNode(Output, "logistic")
		if err != nil {
			return nil, err
		}
		n.net = net
		n.index = inputCount + i
		net.nodes = append(net.nodes, n)
	}
	net.topoDirty = true
	net.slabDirty = true
	net.adjDirty = true
	return net, nil
}

// Nodes returns the network's nodes in definition order: inputs first,
// then hidden/constant nodes in insertion order, then outputs last.
func (net *Network) Nodes() []*Node { return net.nodes }

// Connections returns the non-self-loop edges.
func (net *Network) Connections() []*Connection { return net.connections }

// SelfConnections returns the network's self-loop edges.
func (net *Network) SelfConnections() []*Connection { return net.selfConns }

// GateCount returns the number of gated connections (self-loops included).
func (net *Network) GateCount() int { return len(net.gates) }

// Input returns the i-th input node.
func (net *Network) Input(i int) *Node { return net.nodes[i] }

// Output returns the i-th output node.
func (net *Network) Output(i int) *Node {
	return net.nodes[len(net.nodes)-net.OutputCount+i]
}

func randWeight() float64 {
	return rand.Float64()*2 - 1
}

// AddNode creates a Hidden or Constant node and inserts it immediately
// before the output block, preserving the input/hidden/output ordering
// invariant Network.nodes relies on.
func (net *Network) AddNode(t NodeType, squashName string) (*Node, error) {
	if t == Input || t == Output {
		return nil, fmt.Errorf("%w: AddNode only creates hidden/constant nodes", ErrInvalidOption)
	}
	n, err := newNode(t, squashName)
	if err != nil {
		return nil, err
	}
	n.net = net
	insertAt := len(net.nodes) - net.OutputCount
	net.nodes = append(net.nodes, nil)
	copy(net.nodes[insertAt+1:], net.nodes[insertAt:])
	net.nodes[insertAt] = n
	net.nodeIndexDirty = true
	net.topoDirty = true
	net.slabDirty = true
	return n, nil
}

func (net *Network) indexOf(n *Node) int {
	if !net.nodeIndexDirty {
		return n.index
	}
	for i, node := range net.nodes {
		if node == n {
			return i
		}
	}
	return -1
}

// wouldCreateCycle reports whether adding from->to would close a cycle in
// the current (enabled) connection graph, using gonum's directed-cycle
// detection over a throwaway graph keyed by node identity rather than by
// the possibly-stale cached node index.
func (net *Network) wouldCreateCycle(from, to *Node) bool {
	ids := make(map[*Node]int64, len(net.nodes))
	g := simple.NewDirectedGraph()
	for i, n := range net.nodes {
		id := int64(i)
		ids[n] = id
		g.AddNode(simple.Node(id))
	}
	for _, c := range net.connections {
		if !c.Enabled() {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(ids[c.From]), T: simple.Node(ids[c.To])})
	}
	g.SetEdge(simple.Edge{F: simple.Node(ids[from]), T: simple.Node(ids[to])})
	return len(topo.DirectedCyclesIn(g)) > 0
}

// Connect creates a weighted edge from->to (or a self-loop when from==to),
// returning the new Connection. In acyclic mode, a connection that would
// create a cycle, a self-loop included, is silently refused (nil, nil) rather than erroring,
// matching §4.5's "return empty" contract; everything else (unknown nodes,
// a duplicate self-connection, a duplicate parallel edge between the same
// pair of nodes) is reported as an error.
func (net *Network) Connect(from, to *Node, weight ...float64) (*Connection, error) {
	if from.net != net || to.net != net {
		return nil, ErrNodeNotInNetwork
	}
	if net.Acyclic {
		if from == to || net.indexOf(from) > net.indexOf(to) || net.wouldCreateCycle(from, to) {
			return nil, nil
		}
	}
	w := randWeight()
	if len(weight) > 0 {
		w = weight[0]
	}
	c := newConnection(from, to, w)
	if from == to {
		if from.Self != nil {
			return nil, ErrSelfConnectionExists
		}
		from.Self = c
		net.selfConns = append(net.selfConns, c)
	} else {
		for _, existing := range from.Out {
			if existing.To == to {
				return nil, ErrConnectionExists
			}
		}
		from.Out = append(from.Out, c)
		to.In = append(to.In, c)
		net.connections = append(net.connections, c)
	}
	net.topoDirty = true
	net.slabDirty = true
	net.structGen++
	return c, nil
}

// ConnectionBetween returns the edge from->to, or ErrConnectionNotFound if
// no such edge exists (including the from==to self-connection case).
func (net *Network) ConnectionBetween(from, to *Node) (*Connection, error) {
	if from == to {
		if from.Self == nil {
			return nil, ErrConnectionNotFound
		}
		return from.Self, nil
	}
	for _, c := range from.Out {
		if c.To == to {
			return c, nil
		}
	}
	return nil, ErrConnectionNotFound
}

// Disconnect removes the edge from->to, ungating it first if gated.
// Idempotent: succeeds silently if no such edge exists.
func (net *Network) Disconnect(from, to *Node) {
	if from == to {
		if from.Self == nil {
			return
		}
		if from.Self.Gated() {
			net.Ungate(from.Self)
		}
		from.Self = nil
		net.selfConns = removeConn(net.selfConns, func(c *Connection) bool { return c.From == from && c.To == to })
		net.topoDirty, net.slabDirty = true, true
		net.structGen++
		return
	}
	var found *Connection
	for _, c := range from.Out {
		if c.To == to {
			found = c
			break
		}
	}
	if found == nil {
		return
	}
	if found.Gated() {
		net.Ungate(found)
	}
	from.Out = removeConn(from.Out, func(c *Connection) bool { return c == found })
	to.In = removeConn(to.In, func(c *Connection) bool { return c == found })
	net.connections = removeConn(net.connections, func(c *Connection) bool { return c == found })
	net.topoDirty, net.slabDirty, net.adjDirty = true, true, true
	net.structGen++
}

func removeConn(list []*Connection, match func(*Connection) bool) []*Connection {
	out := list[:0]
	for _, c := range list {
		if !match(c) {
			out = append(out, c)
		}
	}
	return out
}

// Gate makes node the gater of conn: conn.Gater = node, node.Gated gains
// conn, and conn's has-gater flag is set.
func (net *Network) Gate(node *Node, conn *Connection) {
	if conn.Gater == node {
		return
	}
	conn.Gater = node
	conn.setGated(true)
	node.Gated = append(node.Gated, conn)
	net.gates = append(net.gates, conn)
	net.structGen++
}

// Ungate removes conn's gater, if any.
func (net *Network) Ungate(conn *Connection) {
	if conn.Gater == nil {
		return
	}
	g := conn.Gater
	g.Gated = removeConn(g.Gated, func(c *Connection) bool { return c == conn })
	net.gates = removeConn(net.gates, func(c *Connection) bool { return c == conn })
	conn.Gater = nil
	conn.setGated(false)
	net.structGen++
}

// renumberNodes assigns each node its position in net.nodes as its stable
// index, used for CantorPair innovation ids and the packed slab.
func (net *Network) renumberNodes() {
	for i, n := range net.nodes {
		n.index = i
	}
	net.nodeIndexDirty = false
}

// rebuildTopoOrder recomputes the topological order via Kahn's algorithm
// over enabled non-self connections. On cycle detection it falls back to
// the raw node order and sets topoFellBack, making the fast-slab path
// unavailable until the cycle is resolved.
func (net *Network) rebuildTopoOrder() {
	if net.nodeIndexDirty {
		net.renumberNodes()
	}
	n := len(net.nodes)
	indeg := make([]int, n)
	adj := make([][]int, n)
	for _, c := range net.connections {
		if !c.Enabled() {
			continue
		}
		f, t := c.From.index, c.To.index
		adj[f] = append(adj[f], t)
		indeg[t]++
	}

	queue := make([]int, 0, n)
	seen := make([]bool, n)
	for i, nd := range net.nodes {
		if nd.Type == Input {
			queue = append(queue, i)
			seen[i] = true
		}
	}
	for i := 0; i < n; i++ {
		if !seen[i] && indeg[i] == 0 {
			queue = append(queue, i)
			seen[i] = true
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, to := range adj[i] {
			indeg[to]--
			if indeg[to] == 0 && !seen[to] {
				seen[to] = true
				queue = append(queue, to)
			}
		}
	}

	if len(order) < n {
		net.topoOrder = make([]int, n)
		for i := range net.topoOrder {
			net.topoOrder[i] = i
		}
		net.topoFellBack = true
	} else {
		net.topoOrder = order
		net.topoFellBack = false
	}
	net.topoDirty = false
}

func growCapacity(current, need int) int {
	if current < 1 {
		current = 1
	}
	for current < need {
		grown := int(float64(current) * 1.75)
		if grown <= current {
			grown = current + 1
		}
		current = grown
	}
	return current
}

// rebuildSlab refreshes the packed slab from net.connections, growing and
// reacquiring pooled buffers geometrically when capacity is insufficient.
func (net *Network) rebuildSlab() {
	if net.nodeIndexDirty {
		net.renumberNodes()
		net.adjDirty = true
	}
	need := len(net.connections)
	if net.slab.capacity < need {
		newCap := growCapacity(net.slab.capacity, need)
		if net.slab.weights != nil {
			net.pool.PutFloat64(poolbuf.KindWeights, net.slab.weights)
			net.pool.PutFloat64(poolbuf.KindGain, net.slab.gain)
			net.pool.PutUint32(poolbuf.KindFrom, net.slab.from)
			net.pool.PutUint32(poolbuf.KindTo, net.slab.to)
			net.pool.PutUint8(poolbuf.KindFlags, net.slab.flags)
		}
		net.slab.weights = net.pool.GetFloat64(poolbuf.KindWeights, newCap)
		net.slab.gain = net.pool.GetFloat64(poolbuf.KindGain, newCap)
		net.slab.from = net.pool.GetUint32(poolbuf.KindFrom, newCap)
		net.slab.to = net.pool.GetUint32(poolbuf.KindTo, newCap)
		net.slab.flags = net.pool.GetUint8(poolbuf.KindFlags, newCap)
		net.slab.capacity = newCap
		net.adjDirty = true
	}
	for i, c := range net.connections {
		net.slab.weights[i] = c.Weight
		net.slab.gain[i] = c.Gain
		net.slab.from[i] = uint32(c.From.index)
		net.slab.to[i] = uint32(c.To.index)
		net.slab.flags[i] = c.flags
	}
	net.slab.used = need
	net.slab.version++
	net.slabDirty = false
	net.adjDirty = true
}

// RebuildSlabAsync is the cooperative variant of rebuildSlab: the copy
// loop yields (by invoking yield, if non-nil) every chunkEntries entries
// so a caller embedding the network in an event loop can interleave other
// work. If a structural mutation re-asserts slabDirty while this is
// running (observable via yield re-entering the network), the partially
// populated slab is discarded and the dirty flag stays set.
func (net *Network) RebuildSlabAsync(chunkEntries int, yield func()) {
	if chunkEntries <= 0 {
		chunkEntries = 50000
	}
	if net.nodeIndexDirty {
		net.renumberNodes()
		net.adjDirty = true
	}
	need := len(net.connections)
	if net.slab.capacity < need {
		newCap := growCapacity(net.slab.capacity, need)
		if net.slab.weights != nil {
			net.pool.PutFloat64(poolbuf.KindWeights, net.slab.weights)
			net.pool.PutFloat64(poolbuf.KindGain, net.slab.gain)
			net.pool.PutUint32(poolbuf.KindFrom, net.slab.from)
			net.pool.PutUint32(poolbuf.KindTo, net.slab.to)
			net.pool.PutUint8(poolbuf.KindFlags, net.slab.flags)
		}
		net.slab.weights = net.pool.GetFloat64(poolbuf.KindWeights, newCap)
		net.slab.gain = net.pool.GetFloat64(poolbuf.KindGain, newCap)
		net.slab.from = net.pool.GetUint32(poolbuf.KindFrom, newCap)
		net.slab.to = net.pool.GetUint32(poolbuf.KindTo, newCap)
		net.slab.flags = net.pool.GetUint8(poolbuf.KindFlags, newCap)
		net.slab.capacity = newCap
	}
	startGen := net.structGen
	conns := net.connections
	for i, c := range conns {
		net.slab.weights[i] = c.Weight
		net.slab.gain[i] = c.Gain
		net.slab.from[i] = uint32(c.From.index)
		net.slab.to[i] = uint32(c.To.index)
		net.slab.flags[i] = c.flags
		if yield != nil && (i+1)%chunkEntries == 0 {
			net.slabAsyncBuilds++
			yield()
			if net.structGen != startGen {
				// A structural mutation landed mid-rebuild (observed via a
				// reentrant Connect/Disconnect/Gate/Ungate inside yield):
				// abandon this pass and leave slabDirty set so the next
				// rebuild starts over from scratch against the new graph.
				return
			}
		}
	}
	net.slab.used = need
	net.slab.version++
	net.slabDirty = false
	net.adjDirty = true
}

// rebuildAdjacency builds the CSR out_start/out_order view over the
// current slab: out_start is the prefix-summed fan-out count per node,
// out_order buckets connection (slab) indices by source node.
func (net *Network) rebuildAdjacency() {
	n := len(net.nodes)
	starts := make([]int32, n+1)
	for i := 0; i < net.slab.used; i++ {
		if net.slab.flags[i]&connFlagEnabled == 0 {
			continue
		}
		starts[net.slab.from[i]+1]++
	}
	for i := 0; i < n; i++ {
		starts[i+1] += starts[i]
	}
	cursor := append([]int32(nil), starts[:n]...)
	order := make([]int32, starts[n])
	for i := 0; i < net.slab.used; i++ {
		if net.slab.flags[i]&connFlagEnabled == 0 {
			continue
		}
		src := net.slab.from[i]
		order[cursor[src]] = int32(i)
		cursor[src]++
	}
	net.slab.outStart = starts
	net.slab.outOrder = order
	net.adjDirty = false
}

// ensureForwardCaches rebuilds whichever of topo order / slab / adjacency
// are currently dirty, in dependency order.
func (net *Network) ensureForwardCaches() {
	if net.topoDirty {
		net.rebuildTopoOrder()
	}
	if net.slabDirty {
		net.rebuildSlab()
	}
	if net.adjDirty {
		net.rebuildAdjacency()
	}
}

// fastPathEligible reports whether every §4.5 eligibility predicate for
// the fast-slab forward path holds, given the network's static
// configuration (the "not in training mode" predicate is the caller's
// responsibility: Activate checks it before calling this).
func (net *Network) fastPathEligible() bool {
	return net.Acyclic &&
		!net.topoFellBack &&
		len(net.gates) == 0 &&
		len(net.selfConns) == 0 &&
		net.Dropout == 0
}

// Activate runs the forward pass with training=false, dispatching to the
// fast-slab path when eligible and falling back to the generic recurrent
// path otherwise.
func (net *Network) Activate(inputs []float64) ([]float64, error) {
	return net.activate(inputs, false)
}

// ActivateTraining runs the forward pass with training=true (always via
// the generic path, since the fast-slab path never tracks traces).
func (net *Network) ActivateTraining(inputs []float64) ([]float64, error) {
	return net.activate(inputs, true)
}

func (net *Network) activate(inputs []float64, training bool) ([]float64, error) {
	if len(inputs) != net.InputCount {
		return nil, fmt.Errorf("%w: network expects %d inputs, got %d", ErrDimensionMismatch, net.InputCount, len(inputs))
	}
	net.ensureForwardCaches()
	if !training && net.fastPathEligible() {
		return net.fastSlabActivate(inputs)
	}
	return net.genericActivate(inputs, training)
}

// genericActivate iterates nodes in definition order, per §4.5's "Forward
// — generic path": input nodes receive values from the input vector, then
// every remaining node runs its full activate(training).
func (net *Network) genericActivate(inputs []float64, training bool) ([]float64, error) {
	for i := 0; i < net.InputCount; i++ {
		net.nodes[i].activateInput(inputs[i])
	}
	for i := net.InputCount; i < len(net.nodes); i++ {
		net.nodes[i].activate(training)
	}
	out := make([]float64, net.OutputCount)
	base := len(net.nodes) - net.OutputCount
	for i := 0; i < net.OutputCount; i++ {
		out[i] = net.nodes[base+i].Activation
	}
	return out, nil
}

// fastSlabActivate is §4.5's "Forward — fast slab path": a single
// sequential pass over the topological order operating on the packed
// slab, mirroring results back into each Node's State/Activation so
// downstream inspection sees consistent values.
func (net *Network) fastSlabActivate(inputs []float64) ([]float64, error) {
	n := len(net.nodes)
	state := make([]float64, n)
	activation := make([]float64, n)
	copy(activation[:net.InputCount], inputs)

	for _, i := range net.topoOrder {
		nd := net.nodes[i]
		if i >= net.InputCount {
			y := nd.squash.Fn(state[i] + nd.Bias)
			activation[i] = y
			nd.Derivative = nd.squash.Deriv(state[i]+nd.Bias, y)
		}
		for e := net.slab.outStart[i]; e < net.slab.outStart[i+1]; e++ {
			connIdx := net.slab.outOrder[e]
			to := net.slab.to[connIdx]
			state[to] += activation[i] * net.slab.weights[connIdx]
		}
	}

	for i, nd := range net.nodes {
		nd.OldState = nd.State
		nd.State = state[i]
		nd.Activation = activation[i]
	}

	out := make([]float64, net.OutputCount)
	copy(out, activation[n-net.OutputCount:])
	return out, nil
}

// ClearState resets every node's per-sequence transient state (activation,
// traces, error) without touching learned parameters.
func (net *Network) ClearState() {
	for _, n := range net.nodes {
		n.clearState()
	}
}

// ResetDropoutMasks sets every hidden node's Mask back to 1 and clears
// Network.Dropout, used by the training orchestrator's post-loop cleanup.
func (net *Network) ResetDropoutMasks() {
	for _, n := range net.nodes {
		n.Mask = 1
	}
	net.Dropout = 0
}

// ApplyDropoutMasks rolls fresh Bernoulli(1-Dropout) masks for every
// hidden node; TrainSet calls it once at the start of each pass over its
// samples, so the masks hold for that whole pass. Input/output nodes are
// never dropped.
func (net *Network) ApplyDropoutMasks() {
	if net.Dropout <= 0 {
		return
	}
	for _, n := range net.nodes {
		if n.Type == Hidden || n.Type == Constant {
			if rand.Float64() < net.Dropout {
				n.Mask = 0
			} else {
				n.Mask = 1
			}
		}
	}
}

// --- JSON codec (§6 "Network JSON format") ---

type jsonNode struct {
	Type   string  `json:"type"`
	Bias   float64 `json:"bias"`
	Squash string  `json:"squash"`
	Mask   float64 `json:"mask"`
	Index  int     `json:"index"`
}

type jsonConnection struct {
	From   int      `json:"from"`
	To     int      `json:"to"`
	Weight float64  `json:"weight"`
	Gain   float64  `json:"gain"`
	Gater  *int     `json:"gater"`
}

type jsonNetwork struct {
	Input       int              `json:"input"`
	Output      int              `json:"output"`
	Dropout     float64          `json:"dropout"`
	Nodes       []jsonNode       `json:"nodes"`
	Connections []jsonConnection `json:"connections"`
}

// ToJSON serializes the network per §6's Network JSON format.
func (net *Network) ToJSON() ([]byte, error) {
	if net.nodeIndexDirty {
		net.renumberNodes()
	}
	out := jsonNetwork{
		Input:   net.InputCount,
		Output:  net.OutputCount,
		Dropout: net.Dropout,
	}
	for _, n := range net.nodes {
		out.Nodes = append(out.Nodes, jsonNode{
			Type:   n.Type.String(),
			Bias:   n.Bias,
			Squash: n.SquashName,
			Mask:   n.Mask,
			Index:  n.index,
		})
	}
	emit := func(c *Connection) {
		jc := jsonConnection{From: c.From.index, To: c.To.index, Weight: c.Weight, Gain: c.Gain}
		if c.Gater != nil {
			g := c.Gater.index
			jc.Gater = &g
		}
		out.Connections = append(out.Connections, jc)
	}
	for _, c := range net.connections {
		emit(c)
	}
	for _, c := range net.selfConns {
		emit(c)
	}
	return json.Marshal(out)
}

// NetworkFromJSON rebuilds a Network from ToJSON's output. Nodes are
// recreated in their serialized index order, then every connection is
// reconnected (and regated, if its gater is set) through Connect/Gate so
// the rebuilt network's bookkeeping (Out/In/Gated lists, connections vs
// selfConns vs gates) is fully consistent.
func NetworkFromJSON(data []byte) (*Network, error) {
	var in jsonNetwork
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("neat: decoding network json: %w", err)
	}
	net, err := NewNetwork(in.Input, in.Output)
	if err != nil {
		return nil, err
	}
	net.Dropout = in.Dropout
	net.nodes = net.nodes[:0]

	for _, jn := range in.Nodes {
		var t NodeType
		switch jn.Type {
		case "input":
			t = Input
		case "output":
			t = Output
		case "constant":
			t = Constant
		default:
			t = Hidden
		}
		n, err := newNode(t, jn.Squash)
		if err != nil {
			return nil, err
		}
		n.net = net
		n.Bias = jn.Bias
		n.Mask = jn.Mask
		n.index = jn.Index
		net.nodes = append(net.nodes, n)
	}
	net.nodeIndexDirty = false

	byIndex := make(map[int]*Node, len(net.nodes))
	for _, n := range net.nodes {
		byIndex[n.index] = n
	}

	type pendingGate struct {
		conn  *Connection
		gater int
	}
	var pending []pendingGate

	for _, jc := range in.Connections {
		from, ok1 := byIndex[jc.From]
		to, ok2 := byIndex[jc.To]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: connection references unknown node index", ErrNodeNotInNetwork)
		}
		c, err := net.Connect(from, to, jc.Weight)
		if err != nil {
			return nil, err
		}
		c.Gain = jc.Gain
		if jc.Gater != nil {
			pending = append(pending, pendingGate{c, *jc.Gater})
		}
	}
	for _, pg := range pending {
		net.Gate(byIndex[pg.gater], pg.conn)
	}

	net.topoDirty = true
	net.slabDirty = true
	net.adjDirty = true
	return net, nil
}
