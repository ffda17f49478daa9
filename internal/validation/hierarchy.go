package validation

import (
	"fmt"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

// validateHierarchy checks the depth structure of the node list: the first
// node is top-level, depth only grows by one directly below a group node,
// and every group has at least one child.
func validateHierarchy(nodes []schema.TimelineNode) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	if len(nodes) == 0 {
		return result
	}

	if nodes[0].Depth != 0 {
		result.AddError("nodes[0].depth", nodes[0].ID, schema.ErrCodeHierarchy,
			fmt.Sprintf("first node has depth %d, want 0", nodes[0].Depth))
	}

	for i := 1; i < len(nodes); i++ {
		prev, n := nodes[i-1], nodes[i]
		path := fmt.Sprintf("nodes[%d].depth", i)
		switch {
		case n.Depth > prev.Depth+1:
			result.AddError(path, n.ID, schema.ErrCodeHierarchy,
				fmt.Sprintf("depth jumps from %d to %d", prev.Depth, n.Depth))
		case n.Depth == prev.Depth+1 && !prev.HasChildren:
			result.AddError(path, n.ID, schema.ErrCodeHierarchy,
				fmt.Sprintf("nested under %q, which is not a group", prev.ID))
		}
	}

	for i, n := range nodes {
		if !n.HasChildren {
			continue
		}
		if i+1 == len(nodes) || nodes[i+1].Depth <= n.Depth {
			result.AddWarning(fmt.Sprintf("nodes[%d].has_children", i), n.ID, schema.ErrCodeHierarchy,
				"group node has no children")
		}
	}

	return result
}
