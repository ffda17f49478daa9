package diagram

import (
	"github.com/hellodavidux/runtrace/internal/gantt"
	"github.com/hellodavidux/runtrace/internal/timeline"
)

// Build constructs a DiagramModel from a built timeline. Rows nest under the
// nearest preceding group one level up; siblings are chained in row order
// and the top level is framed by virtual start and end nodes.
func Build(title string, res *gantt.Result) *DiagramModel {
	if title == "" {
		title = "Run timeline"
	}

	top := &SubGraph{}
	levels := []*SubGraph{top}
	for _, row := range res.Rows {
		depth := row.Node.Depth
		if depth >= len(levels) {
			depth = len(levels) - 1
		}
		levels = levels[:depth+1]

		node := rowToNode(row)
		levels[depth].Nodes = append(levels[depth].Nodes, node)
		if row.Node.HasChildren {
			node.Group = &SubGraph{Label: row.Node.Label}
			levels = append(levels, node.Group)
		}
	}
	chain(top)

	start := &Node{ID: StartID, Label: "Start", Kind: NodeKindStart}
	end := &Node{ID: EndID, Label: "End", Kind: NodeKindEnd}

	edges := make([]Edge, 0, len(top.Edges)+2)
	if len(top.Nodes) == 0 {
		edges = append(edges, Edge{From: StartID, To: EndID})
	} else {
		edges = append(edges, Edge{From: StartID, To: top.Nodes[0].ID})
		edges = append(edges, top.Edges...)
		edges = append(edges, Edge{From: top.Nodes[len(top.Nodes)-1].ID, To: EndID})
	}

	nodes := make([]*Node, 0, len(top.Nodes)+2)
	nodes = append(nodes, start)
	nodes = append(nodes, top.Nodes...)
	nodes = append(nodes, end)

	return &DiagramModel{
		Title:      title,
		HorizonSec: res.HorizonSec,
		Nodes:      nodes,
		Edges:      edges,
	}
}

func rowToNode(row gantt.Row) *Node {
	return &Node{
		ID:         row.Node.ID,
		Label:      row.Node.Label,
		Identifier: row.Identifier,
		Kind:       roleToKind(row.Role),
		Status:     row.Status,
		StartSec:   row.Node.StartSec,
		EndSec:     row.Node.EndSec,
	}
}

// roleToKind converts a timeline role to a NodeKind.
func roleToKind(r timeline.Role) NodeKind {
	switch r {
	case timeline.RoleInput:
		return NodeKindInput
	case timeline.RoleOutput:
		return NodeKindOutput
	case timeline.RoleLLM:
		return NodeKindLLM
	case timeline.RoleRouting:
		return NodeKindRouting
	case timeline.RoleIfElse:
		return NodeKindCondition
	case timeline.RoleLoopSubflow:
		return NodeKindGroup
	case timeline.RoleDelay:
		return NodeKindDelay
	default:
		return NodeKindAction
	}
}

// chain links consecutive siblings, and each group to its first child.
func chain(sg *SubGraph) {
	for i, n := range sg.Nodes {
		if i > 0 {
			sg.Edges = append(sg.Edges, Edge{From: sg.Nodes[i-1].ID, To: n.ID})
		}
		if n.Group == nil {
			continue
		}
		chain(n.Group)
		if len(n.Group.Nodes) > 0 {
			n.Group.Edges = append([]Edge{{From: n.ID, To: n.Group.Nodes[0].ID}}, n.Group.Edges...)
		}
	}
}
