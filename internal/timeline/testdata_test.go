package timeline

import "github.com/hellodavidux/runtrace/pkg/schema"

// referenceNodes mirrors the canonical run shown on the run detail dashboard.
func referenceNodes() []schema.TimelineNode {
	return []schema.TimelineNode{
		{ID: "1", Label: "User Input", StartSec: 0, EndSec: 1.2, Icon: schema.IconPlay},
		{ID: "2", Label: "AI Agent", StartSec: 1.2, EndSec: 8, Icon: schema.IconZap},
		{ID: "2a", Label: "AI Agent", StartSec: 6.5, EndSec: 14, Icon: schema.IconZap},
		{ID: "3", Label: "AI Routing", StartSec: 12, EndSec: 13.5, Icon: schema.IconRoute},
		{ID: "4", Label: "AI Agent", StartSec: 2, EndSec: 17, Icon: schema.IconZap},
		{ID: "5", Label: "Send Email", StartSec: 13.5, EndSec: 15, Icon: schema.IconMail, Status: schema.StatusError},
		{ID: "6", Label: "If/Else", StartSec: 15, EndSec: 16, Icon: schema.IconBranch},
		{ID: "7", Label: "Notion", StartSec: 15.5, EndSec: 17, Icon: schema.IconFile},
		{ID: "8", Label: "Output", StartSec: 17, EndSec: 18, Icon: schema.IconSend},
		{ID: "9", Label: "Project node", StartSec: 0, EndSec: 6, HasChildren: true, Icon: schema.IconFolder},
	}
}

func groupedNodes() []schema.TimelineNode {
	return []schema.TimelineNode{
		{ID: "in", Label: "User Input", StartSec: 0, EndSec: 1, Icon: schema.IconPlay},
		{ID: "grp", Label: "Loop", StartSec: 1, EndSec: 6, HasChildren: true, Icon: schema.IconFolder},
		{ID: "grp-a", Label: "Fetch", StartSec: 1, EndSec: 2, Depth: 1},
		{ID: "grp-b", Label: "Inner", StartSec: 2, EndSec: 5, Depth: 1, HasChildren: true, Icon: schema.IconFolder},
		{ID: "grp-b-1", Label: "Deep", StartSec: 2, EndSec: 3, Depth: 2},
		{ID: "grp-c", Label: "Store", StartSec: 5, EndSec: 6, Depth: 1},
		{ID: "tail", Label: "Send Email", StartSec: 6, EndSec: 7, Icon: schema.IconMail},
	}
}

func ids(nodes []schema.TimelineNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
