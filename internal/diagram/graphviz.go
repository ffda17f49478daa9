package diagram

import (
	"bytes"
	"context"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

// ImageFormat is an output format of RenderImage.
type ImageFormat string

const (
	ImagePNG ImageFormat = "png"
	ImageSVG ImageFormat = "svg"
	ImageDOT ImageFormat = "dot"
)

func (f ImageFormat) graphviz() (graphviz.Format, bool) {
	switch f {
	case ImagePNG:
		return graphviz.PNG, true
	case ImageSVG:
		return graphviz.SVG, true
	case ImageDOT:
		return graphviz.XDOT, true
	default:
		return "", false
	}
}

// RenderImage renders a DiagramModel with graphviz, left to right.
func RenderImage(ctx context.Context, model *DiagramModel, format ImageFormat) ([]byte, error) {
	gvFormat, ok := format.graphviz()
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "unknown image format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeExport, "create graphviz").WithCause(err)
	}
	defer gv.Close()

	gv.SetLayout(graphviz.DOT)

	graph, err := gv.Graph()
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeExport, "create graph").WithCause(err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.LRRank)
	if model.Title != "" {
		graph.SetLabel(model.Title)
	}

	gvNodes := make(map[string]*cgraph.Node)
	if err := addNodes(graph, model.Nodes, gvNodes); err != nil {
		return nil, err
	}

	addEdges(graph, model.Edges, gvNodes)
	walk(model.Nodes, func(n *Node) {
		if n.Group != nil {
			addEdges(graph, n.Group.Edges, gvNodes)
		}
	})

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExport, "render %s", format).WithCause(err)
	}
	return buf.Bytes(), nil
}

// addNodes creates nodes in graph, and a dashed cluster for every group.
func addNodes(graph *cgraph.Graph, nodes []*Node, gvNodes map[string]*cgraph.Node) error {
	for _, node := range nodes {
		gvNode, err := graph.CreateNodeByName(node.ID)
		if err != nil {
			return schema.NewErrorf(schema.ErrCodeExport, "create node %s", node.ID).WithNode(node.ID).WithCause(err)
		}
		gvNode.SetLabel(nodeLabel(node))
		applyNodeStyle(gvNode, node)
		gvNodes[node.ID] = gvNode

		if node.Group == nil || len(node.Group.Nodes) == 0 {
			continue
		}
		sub, err := graph.CreateSubGraphByName("cluster_" + node.ID)
		if err != nil {
			return schema.NewErrorf(schema.ErrCodeExport, "create cluster %s", node.ID).WithNode(node.ID).WithCause(err)
		}
		sub.SetLabel(node.Group.Label)
		sub.SetStyle(cgraph.DashedGraphStyle)
		if err := addNodes(sub, node.Group.Nodes, gvNodes); err != nil {
			return err
		}
	}
	return nil
}

func addEdges(graph *cgraph.Graph, edges []Edge, gvNodes map[string]*cgraph.Node) {
	for _, edge := range edges {
		from, to := gvNodes[edge.From], gvNodes[edge.To]
		if from == nil || to == nil {
			continue
		}
		e, err := graph.CreateEdgeByName("", from, to)
		if err == nil && edge.Label != "" {
			e.SetLabel(edge.Label)
		}
	}
}

// applyNodeStyle sets graphviz attributes based on node kind and status.
func applyNodeStyle(gvNode *cgraph.Node, node *Node) {
	switch node.Kind {
	case NodeKindRouting, NodeKindCondition:
		gvNode.SetShape(cgraph.DiamondShape)
	case NodeKindLLM:
		gvNode.SetShape(cgraph.HexagonShape)
	case NodeKindInput, NodeKindOutput, NodeKindDelay:
		gvNode.SetShape(cgraph.EllipseShape)
	case NodeKindStart, NodeKindEnd:
		gvNode.SetShape(cgraph.CircleShape)
		gvNode.SetWidth(0.5)
		gvNode.SetHeight(0.5)
	default:
		gvNode.SetShape(cgraph.BoxShape)
	}
	if node.Status != "" {
		applyStatusColor(gvNode, node.Status)
	}
}

// applyStatusColor sets fill color and style based on status.
func applyStatusColor(gvNode *cgraph.Node, status schema.DisplayStatus) {
	gvNode.SetStyle(cgraph.FilledNodeStyle)
	switch status {
	case schema.DisplaySuccess:
		gvNode.SetFillColor("#2d6a2d")
		gvNode.SetFontColor("white")
	case schema.DisplayError:
		gvNode.SetFillColor("#8b1a1a")
		gvNode.SetFontColor("white")
	case schema.DisplayRunning:
		gvNode.SetFillColor("#1a5276")
		gvNode.SetFontColor("white")
	case schema.DisplayPending:
		gvNode.SetFillColor("#d3d3d3")
		gvNode.SetFontColor("black")
	case schema.DisplaySkipped:
		gvNode.SetFillColor("#e8e8e8")
		gvNode.SetFontColor("#888888")
		gvNode.SetStyle(cgraph.DashedNodeStyle)
	}
}
