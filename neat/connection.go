package neat

const (
	connFlagEnabled     uint8 = 1 << 0
	connFlagDropConnect uint8 = 1 << 1
	connFlagHasGater    uint8 = 1 << 2
)

// xtrace holds the extended eligibility trace a connection accumulates for
// every node that gates one of the connection's target node's outgoing or
// self connections (the BPTT-lite "extended traces" of §4.6). Nodes/Values
// are parallel slices, kept short (one entry per such gater) rather than a
// map, since in practice a node has at most a handful of such gaters.
type xtrace struct {
	Nodes  []*Node
	Values []float64
}

func (xt *xtrace) indexOf(n *Node) int {
	for i, node := range xt.Nodes {
		if node == n {
			return i
		}
	}
	return -1
}

func (xt *xtrace) get(n *Node) float64 {
	if i := xt.indexOf(n); i >= 0 {
		return xt.Values[i]
	}
	return 0
}

func (xt *xtrace) set(n *Node, v float64) {
	if i := xt.indexOf(n); i >= 0 {
		xt.Values[i] = v
		return
	}
	xt.Nodes = append(xt.Nodes, n)
	xt.Values = append(xt.Values, v)
}

// Connection is a weighted, optionally gated edge between two nodes. A
// connection whose From and To are the same node is a self-loop and is
// tracked separately by the owning Network (Network.selfConns) rather than
// in Network.connections.
type Connection struct {
	From, To *Node
	Weight   float64
	Gain     float64 // multiplier applied by an active gater; 1.0 when ungated
	Gater    *Node

	Eligibility float64
	xtrace      xtrace

	PrevDeltaWeight  float64
	TotalDeltaWeight float64

	opt OptimizerState

	flags uint8
}

func newConnection(from, to *Node, weight float64) *Connection {
	return &Connection{
		From:   from,
		To:     to,
		Weight: weight,
		Gain:   1.0,
		flags:  connFlagEnabled,
	}
}

// Enabled reports whether the connection currently participates in
// activation and propagation.
func (c *Connection) Enabled() bool { return c.flags&connFlagEnabled != 0 }

// SetEnabled toggles whether the connection participates in activation.
func (c *Connection) SetEnabled(v bool) {
	if v {
		c.flags |= connFlagEnabled
	} else {
		c.flags &^= connFlagEnabled
	}
}

// DropConnected reports whether the DropConnect flag is set, which makes
// effectiveWeight zero this connection's contribution. setDropConnected is
// the flag's only writer, and no forward or training path calls it.
func (c *Connection) DropConnected() bool { return c.flags&connFlagDropConnect != 0 }

func (c *Connection) setDropConnected(v bool) {
	if v {
		c.flags |= connFlagDropConnect
	} else {
		c.flags &^= connFlagDropConnect
	}
}

// Gated reports whether another node currently gates this connection.
func (c *Connection) Gated() bool { return c.flags&connFlagHasGater != 0 }

func (c *Connection) setGated(v bool) {
	if v {
		c.flags |= connFlagHasGater
	} else {
		c.flags &^= connFlagHasGater
	}
}

// IsSelfConnection reports whether this connection loops a node back to
// itself.
func (c *Connection) IsSelfConnection() bool { return c.From == c.To }

// InnovationID returns a stable identifier for this connection's (from, to)
// node-index pair, suitable for matching connections across networks that
// share the same node indexing. The ga package keys its connection genes
// by ConnectionKey and does not use it.
func (c *Connection) InnovationID() int64 {
	return CantorPair(c.From.index, c.To.index)
}

// effectiveWeight is the weight actually applied during a forward pass:
// the raw weight scaled by the gater's gain (1.0 when ungated) and zeroed
// out entirely when DropConnect has masked this step.
func (c *Connection) effectiveWeight() float64 {
	if c.DropConnected() {
		return 0
	}
	return c.Weight * c.Gain
}
