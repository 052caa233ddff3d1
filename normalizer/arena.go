package normalizer

import (
	"github.com/tidepool-org/timeline/data"
)

// MaxSuppressedDepth bounds override chains. Pumps report at most a handful
// of stacked overrides (temp over scheduled, suspend over temp over
// scheduled); anything deeper is malformed input.
const MaxSuppressedDepth = 8

// SuppressedNode is one link of a basal override chain. Chains live in an
// arena indexed by integer handle rather than as nested records, which keeps
// normalization non-recursive and makes cycle-freedom structural: a node can
// only reference nodes added before it.
type SuppressedNode struct {
	DeliveryType string
	Rate         float64
	Percent      *float64
	DurationMs   int64
	NormalTime   string
	Next         data.Handle
}

// Arena stores the session's suppressed-chain nodes. It is rebuilt wholesale
// by every ingestion pipeline run.
type Arena struct {
	nodes []SuppressedNode
}

func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) add(node SuppressedNode) data.Handle {
	a.nodes = append(a.nodes, node)
	return data.Handle(len(a.nodes) - 1)
}

// Node returns the node for a handle.
func (a *Arena) Node(h data.Handle) (SuppressedNode, bool) {
	if h == data.HandleNone || int(h) < 0 || int(h) >= len(a.nodes) {
		return SuppressedNode{}, false
	}
	return a.nodes[int(h)], true
}

// Chain returns the full override chain starting at h, outermost first.
func (a *Arena) Chain(h data.Handle) []SuppressedNode {
	var chain []SuppressedNode
	for h != data.HandleNone {
		node, ok := a.Node(h)
		if !ok {
			break
		}
		chain = append(chain, node)
		h = node.Next
	}
	return chain
}

// Len returns the number of nodes held.
func (a *Arena) Len() int {
	return len(a.nodes)
}
