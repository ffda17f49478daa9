// Package diagram renders a run timeline as a flow diagram (Mermaid or
// Graphviz) and as a Mermaid gantt chart.
package diagram

import "github.com/hellodavidux/runtrace/pkg/schema"

// NodeKind selects the shape a node is drawn with.
type NodeKind string

const (
	NodeKindInput     NodeKind = "input"
	NodeKindOutput    NodeKind = "output"
	NodeKindLLM       NodeKind = "llm"
	NodeKindRouting   NodeKind = "routing"
	NodeKindCondition NodeKind = "condition"
	NodeKindGroup     NodeKind = "group"
	NodeKindDelay     NodeKind = "delay"
	NodeKindAction    NodeKind = "action"
	NodeKindStart     NodeKind = "start"
	NodeKindEnd       NodeKind = "end"
)

// Virtual node IDs framing every diagram.
const (
	StartID = "__start__"
	EndID   = "__end__"
)

// DiagramModel is the intermediate representation used by all renderers.
type DiagramModel struct {
	Title      string
	HorizonSec float64
	Nodes      []*Node
	Edges      []Edge
}

// Node is one timeline row in the diagram.
type Node struct {
	ID         string
	Label      string
	Identifier string
	Kind       NodeKind
	Status     schema.DisplayStatus
	StartSec   float64
	EndSec     float64
	// Group holds the visible children of a group node.
	Group *SubGraph
}

// SubGraph holds the children of a group node.
type SubGraph struct {
	Label string
	Nodes []*Node
	Edges []Edge
}

// Edge is a hand-off between two consecutive steps.
type Edge struct {
	From  string
	To    string
	Label string
}

func (n *Node) virtual() bool {
	return n.Kind == NodeKindStart || n.Kind == NodeKindEnd
}

// walk visits every node, children after their group.
func walk(nodes []*Node, fn func(*Node)) {
	for _, n := range nodes {
		fn(n)
		if n.Group != nil {
			walk(n.Group.Nodes, fn)
		}
	}
}
