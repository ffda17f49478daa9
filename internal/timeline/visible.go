package timeline

import "github.com/hellodavidux/runtrace/pkg/schema"

const (
	// DisplayHorizonSec is the minimum span of the timeline axis.
	DisplayHorizonSec = 20.0
	// HorizonPaddingSec is added after the last node end before comparing
	// with DisplayHorizonSec.
	HorizonPaddingSec = 2.0
)

// Visible removes the descendants of collapsed group nodes. Collapsed holds
// node IDs; an ID that is not a group node has no effect.
func Visible(nodes []schema.TimelineNode, collapsed map[string]bool) []schema.TimelineNode {
	visible := make([]schema.TimelineNode, 0, len(nodes))
	hideDepth := -1

	for _, n := range nodes {
		if hideDepth >= 0 {
			if n.Depth > hideDepth {
				continue
			}
			hideDepth = -1
		}
		if n.HasChildren && collapsed[n.ID] {
			hideDepth = n.Depth
		}
		visible = append(visible, n)
	}
	return visible
}

// Horizon returns the axis length in seconds for nodes: the last end time
// plus padding, never shorter than DisplayHorizonSec.
func Horizon(nodes []schema.TimelineNode) float64 {
	maxEnd := 0.0
	for _, n := range nodes {
		if n.EndSec > maxEnd {
			maxEnd = n.EndSec
		}
	}
	return max(maxEnd+HorizonPaddingSec, DisplayHorizonSec)
}

// Find returns the node with the given ID.
func Find(nodes []schema.TimelineNode, id string) (schema.TimelineNode, bool) {
	if i := indexOf(nodes, id); i >= 0 {
		return nodes[i], true
	}
	return schema.TimelineNode{}, false
}
