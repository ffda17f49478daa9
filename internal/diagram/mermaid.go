package diagram

import (
	"fmt"
	"math"
	"strings"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

// RenderMermaid renders a DiagramModel as a Mermaid flowchart string.
func RenderMermaid(model *DiagramModel) string {
	var b strings.Builder

	b.WriteString("graph LR\n")
	if model.Title != "" {
		fmt.Fprintf(&b, "    %%%% %s\n", model.Title)
	}

	for _, node := range model.Nodes {
		writeMermaidNode(&b, node, "    ")
	}
	for _, edge := range model.Edges {
		writeMermaidEdge(&b, edge, "    ")
	}

	b.WriteString("\n")
	b.WriteString("    classDef success fill:#2d6a2d,stroke:#1a4a1a,color:#fff\n")
	b.WriteString("    classDef error fill:#8b1a1a,stroke:#5c0e0e,color:#fff\n")
	b.WriteString("    classDef running fill:#1a5276,stroke:#0e3a52,color:#fff\n")
	b.WriteString("    classDef pending fill:#6b6b6b,stroke:#4a4a4a,color:#fff\n")
	b.WriteString("    classDef skipped fill:#4a4a4a,stroke:#333,color:#aaa,stroke-dasharray:5 5\n")

	walk(model.Nodes, func(n *Node) {
		if n.virtual() || n.Status == "" {
			return
		}
		fmt.Fprintf(&b, "    class %s %s\n", mermaidSafeID(n.ID), n.Status)
	})

	return b.String()
}

func writeMermaidNode(b *strings.Builder, node *Node, indent string) {
	fmt.Fprintf(b, "%s%s\n", indent, mermaidNodeDef(node))
	if node.Group == nil || len(node.Group.Nodes) == 0 {
		return
	}
	fmt.Fprintf(b, "%ssubgraph %s[%q]\n", indent, mermaidSafeID(node.ID)+"_group", mermaidEscapeLabel(node.Group.Label))
	for _, child := range node.Group.Nodes {
		writeMermaidNode(b, child, indent+"    ")
	}
	fmt.Fprintf(b, "%send\n", indent)
	for _, edge := range node.Group.Edges {
		writeMermaidEdge(b, edge, indent)
	}
}

func writeMermaidEdge(b *strings.Builder, edge Edge, indent string) {
	label := ""
	if edge.Label != "" {
		label = fmt.Sprintf("|%s|", mermaidEscapeLabel(edge.Label))
	}
	fmt.Fprintf(b, "%s%s -->%s %s\n", indent, mermaidSafeID(edge.From), label, mermaidSafeID(edge.To))
}

// mermaidNodeDef returns a Mermaid node definition with the appropriate shape.
func mermaidNodeDef(node *Node) string {
	id := mermaidSafeID(node.ID)
	label := mermaidEscapeLabel(nodeLabel(node))

	switch node.Kind {
	case NodeKindInput, NodeKindOutput:
		return fmt.Sprintf("%s([%q])", id, label)
	case NodeKindLLM:
		return fmt.Sprintf("%s{{%q}}", id, label)
	case NodeKindRouting, NodeKindCondition:
		return fmt.Sprintf("%s{%q}", id, label)
	case NodeKindGroup:
		return fmt.Sprintf("%s[[%q]]", id, label)
	case NodeKindDelay:
		return fmt.Sprintf("%s>%q]", id, label)
	case NodeKindStart, NodeKindEnd:
		return fmt.Sprintf("%s((%q))", id, label)
	default:
		return fmt.Sprintf("%s[%q]", id, label)
	}
}

func nodeLabel(node *Node) string {
	if node.Identifier == "" {
		return node.Label
	}
	return node.Label + " · " + node.Identifier
}

// mermaidSafeID converts a node ID to a Mermaid-safe identifier. Node IDs
// may start with a digit, so timeline nodes get an n_ prefix.
func mermaidSafeID(id string) string {
	if id == StartID || id == EndID {
		return id
	}
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_", ":", "_")
	return "n_" + r.Replace(id)
}

// mermaidEscapeLabel drops characters that end a Mermaid label or task name.
func mermaidEscapeLabel(s string) string {
	return strings.NewReplacer(`"`, "'", ":", " ", ";", ",", "\n", " ").Replace(s)
}

// RenderMermaidGantt renders the model as a Mermaid gantt chart. Times are
// milliseconds from the start of the run.
func RenderMermaidGantt(model *DiagramModel) string {
	var b strings.Builder

	b.WriteString("gantt\n")
	if model.Title != "" {
		fmt.Fprintf(&b, "    title %s\n", mermaidEscapeLabel(model.Title))
	}
	b.WriteString("    dateFormat x\n")
	b.WriteString("    axisFormat %S.%L\n")

	var loose []*Node
	var groups []*Node
	for _, node := range model.Nodes {
		if node.virtual() {
			continue
		}
		loose = append(loose, node)
		if node.Group != nil && len(node.Group.Nodes) > 0 {
			groups = append(groups, node)
		}
	}

	b.WriteString("    section Run\n")
	for _, node := range loose {
		writeGanttTask(&b, node)
	}
	for _, g := range groups {
		fmt.Fprintf(&b, "    section %s\n", mermaidEscapeLabel(g.Group.Label))
		walk(g.Group.Nodes, func(n *Node) { writeGanttTask(&b, n) })
	}
	return b.String()
}

func writeGanttTask(b *strings.Builder, node *Node) {
	tags := ganttTag(node.Status)
	if tags != "" {
		tags += ", "
	}
	fmt.Fprintf(b, "    %s :%s%s, %d, %d\n",
		mermaidEscapeLabel(nodeLabel(node)), tags, mermaidSafeID(node.ID),
		millis(node.StartSec), millis(node.EndSec))
}

// ganttTag maps a display status to a Mermaid gantt task tag.
func ganttTag(s schema.DisplayStatus) string {
	switch s {
	case schema.DisplaySuccess:
		return "done"
	case schema.DisplayError:
		return "crit"
	case schema.DisplayRunning:
		return "active"
	default:
		return ""
	}
}

func millis(sec float64) int64 {
	return int64(math.Round(sec * 1000))
}
