package neat

// NodeType classifies a node's role in the network. Input nodes accept
// external activations and never run the squash function; Output nodes are
// read back as the network's result; Hidden and Constant behave identically
// during activation, training and dropout, Constant differing only in the
// type name it reports and serializes.
type NodeType uint8

const (
	Input NodeType = iota
	Hidden
	Output
	Constant
)

func (t NodeType) String() string {
	switch t {
	case Input:
		return "input"
	case Output:
		return "output"
	case Constant:
		return "constant"
	default:
		return "hidden"
	}
}

// NodeError holds the three error components tracked per node by the
// BPTT-lite backward pass: Projected is the error reaching this node
// through its outgoing connections, Gated is the error reaching it through
// connections it gates (via their extended traces), and Responsibility is
// their derivative-scaled sum — the value propagated further upstream.
// Weight gradients use Projected directly (the gated contribution already
// flows to upstream connections through the xtrace terms, so folding it
// into the direct term too would double count it).
type NodeError struct {
	Responsibility float64
	Projected      float64
	Gated          float64
}

// Node is a single neuron in a Network's graph: a bias, a squashing
// function, and the incoming/outgoing/self/gated connection lists that
// link it to the rest of the graph.
type Node struct {
	index int // position assigned by the owning Network; stable until a structural mutation renumbers nodes
	net   *Network

	Type       NodeType
	SquashName string
	squash     Squash

	Bias       float64
	State      float64
	OldState   float64
	Activation float64
	Derivative float64
	Mask       float64 // dropout multiplier; 1.0 when not dropped

	Err NodeError

	In    []*Connection
	Out   []*Connection
	Self  *Connection
	Gated []*Connection // connections for which this node is the gater

	biasOpt        OptimizerState
	BiasPrevDelta  float64
	BiasTotalDelta float64
}

func newNode(t NodeType, squashName string) (*Node, error) {
	sq, err := GetSquash(squashName)
	if err != nil {
		return nil, err
	}
	return &Node{
		Type:       t,
		SquashName: squashName,
		squash:     sq,
		Mask:       1.0,
	}, nil
}

// Index returns this node's position in the owning Network's node slice.
func (n *Node) Index() int { return n.index }

// SetSquash changes the node's squashing function by name.
func (n *Node) SetSquash(name string) error {
	sq, err := GetSquash(name)
	if err != nil {
		return err
	}
	n.SquashName = name
	n.squash = sq
	return nil
}

// activateInput feeds an external value directly into an Input node's
// activation, bypassing bias/squash/derivative entirely (§4.4: "If input is
// supplied, set activation = input, state = 0, return input").
func (n *Node) activateInput(x float64) float64 {
	n.OldState = n.State
	n.State = 0
	n.Activation = x
	n.Derivative = 0
	for _, gc := range n.Gated {
		gc.Gain = n.Activation
	}
	return n.Activation
}

func selfGainWeight(n *Node) (gain, weight float64) {
	if n.Self != nil && n.Self.Enabled() {
		return n.Self.Gain, n.Self.Weight
	}
	return 0, 0
}

// gatedSourceWeight sums the weight of every connection sourced at n (its
// Out list, plus its Self connection) that is gated by g — the "connections
// from N gated by n" term of §4.4's extended-trace influence formula.
func (n *Node) gatedSourceWeight(g *Node) float64 {
	var sum float64
	for _, c := range n.Out {
		if c.Gater == g {
			sum += c.Weight
		}
	}
	if n.Self != nil && n.Self.Gater == g {
		sum += n.Self.Weight
	}
	return sum
}

// influence is §4.4's n.influence term used by both the forward xtrace
// update and the backward error.gated computation: the weight of n's own
// outgoing/self connections gated by g, plus n's old_state if g happens to
// gate n's self-connection.
func (n *Node) influence(g *Node) float64 {
	inf := n.gatedSourceWeight(g)
	if n.Self != nil && n.Self.Gater == g {
		inf += n.OldState
	}
	return inf
}

// gaterNodes returns the distinct nodes that gate some connection sourced
// at n (its Out list or Self connection) — the set of "extended-trace
// nodes" n's inbound connections must carry an xtrace entry for.
func (n *Node) gaterNodes() []*Node {
	var out []*Node
	seen := func(g *Node) bool {
		for _, x := range out {
			if x == g {
				return true
			}
		}
		return false
	}
	for _, c := range n.Out {
		if c.Gater != nil && !seen(c.Gater) {
			out = append(out, c.Gater)
		}
	}
	if n.Self != nil && n.Self.Gater != nil && !seen(n.Self.Gater) {
		out = append(out, n.Self.Gater)
	}
	return out
}

// activate runs the generic recurrent forward step for a Hidden/Output/
// Constant node: accumulate the weighted sum of incoming activations plus
// any self-loop contribution, squash, and (when training) roll forward the
// eligibility and extended-trace state used by propagate.
func (n *Node) activate(training bool) float64 {
	if n.Type == Input {
		return n.Activation
	}
	if n.Mask == 0 {
		n.Activation = 0
		return 0
	}

	old := n.State
	n.OldState = old

	state := n.Bias
	selfGain, selfWeight := selfGainWeight(n)
	if n.Self != nil && n.Self.Enabled() {
		state += selfGain * selfWeight * old
	}
	for _, c := range n.In {
		if !c.Enabled() {
			continue
		}
		state += c.From.Activation * c.effectiveWeight()
	}
	n.State = state

	y := n.squash.Fn(state)
	n.Activation = y * n.Mask
	n.Derivative = n.squash.Deriv(state, y)

	for _, gc := range n.Gated {
		gc.Gain = n.Activation
	}

	if training {
		n.updateTraces(selfGain, selfWeight)
	}

	return n.Activation
}

// updateTraces rolls the per-connection eligibility trace forward one step
// (§4.4 step 6) and extends it, for every node g gating one of n's own
// outgoing/self connections, using the influence formula shared with
// propagate's error.gated computation.
func (n *Node) updateTraces(selfGain, selfWeight float64) {
	gaters := n.gaterNodes()
	for _, c := range n.In {
		c.Eligibility = selfGain*selfWeight*c.Eligibility + c.Gain*c.From.Activation

		for _, g := range gaters {
			inf := n.influence(g)
			prev := c.xtrace.get(g)
			next := selfGain*selfWeight*prev + n.Derivative*c.Eligibility*inf
			c.xtrace.set(g, next)
		}
	}
}

// propagate runs one backward step for this node, accumulating into every
// incoming connection's TotalDeltaWeight and the node's own BiasTotalDelta.
// It never applies a parameter update itself: Network.commitGradients does
// that (after every sample for plain SGD, at each optimizer step for
// adaptive optimizers), after gradient clipping has had a chance to
// rescale the accumulated values.
//
// For an Output node, pass the sample's target value as target; for
// Hidden/Constant nodes call with no target, since Responsibility is
// derived entirely from downstream connections.
func (n *Node) propagate(target ...float64) {
	if n.Type == Input {
		return
	}

	if n.Type == Output && len(target) > 0 {
		n.Err.Projected = (target[0] - n.Activation) * n.Derivative
		n.Err.Gated = 0
		n.Err.Responsibility = n.Err.Projected
	} else {
		var projected float64
		for _, c := range n.Out {
			if !c.Enabled() || c.IsSelfConnection() {
				continue
			}
			projected += c.To.Err.Responsibility * c.Weight * c.Gain
		}
		n.Err.Projected = projected * n.Derivative

		var gated float64
		for _, g := range n.gaterNodes() {
			gated += n.influence(g) * g.Err.Responsibility
		}
		n.Err.Gated = gated * n.Derivative
		n.Err.Responsibility = n.Err.Projected + n.Err.Gated
	}

	for _, c := range n.In {
		if !c.Enabled() {
			continue
		}
		grad := n.Err.Projected * c.Eligibility
		for i, g := range c.xtrace.Nodes {
			grad += g.Err.Responsibility * c.xtrace.Values[i]
		}
		accumulateGradient(&c.TotalDeltaWeight, grad)
	}

	accumulateGradient(&n.BiasTotalDelta, n.Err.Responsibility)
}

// commitGradients turns every node's and connection's accumulated gradient
// into a parameter delta (via commitGradient: SGD-with-momentum-and-decay
// or the configured adaptive optimizer) and resets the accumulators. Called
// after Network.applyGradientClipping: after every sample for plain SGD, at
// each optimizer step for adaptive optimizers.
func (net *Network) commitGradients(rate, momentum, weightDecay float64, opt *OptimizerConfig) {
	for _, n := range net.nodes {
		if n.Type == Input {
			continue
		}
		for _, c := range n.In {
			commitGradient(&c.Weight, &c.opt, &c.PrevDeltaWeight, &c.TotalDeltaWeight, rate, momentum, weightDecay, opt)
		}
		commitGradient(&n.Bias, &n.biasOpt, &n.BiasPrevDelta, &n.BiasTotalDelta, rate, momentum, 0, opt)
	}
}

// clearState resets the per-sequence recurrent state (activation, traces,
// error) without touching learned parameters, as used between unrelated
// sequences in a training set or before a fresh inference run.
func (n *Node) clearState() {
	n.Activation = 0
	n.State = 0
	n.OldState = 0
	n.Derivative = 0
	n.Err = NodeError{}
	for _, c := range n.In {
		c.Eligibility = 0
		c.xtrace = xtrace{}
	}
	if n.Self != nil {
		n.Self.Eligibility = 0
		n.Self.xtrace = xtrace{}
	}
}

// mutateBias perturbs the node's bias by delta.
func (n *Node) mutateBias(delta float64) {
	n.Bias += delta
}
