package timeline

import (
	"fmt"
	"strings"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

// Role is the behavioral class of a node, used to build its identifier.
type Role string

const (
	RoleInput       Role = "in"
	RoleOutput      Role = "out"
	RoleLLM         Role = "llm"
	RoleRouting     Role = "routing"
	RoleIfElse      Role = "ifelse"
	RoleLoopSubflow Role = "loop_subflow"
	RoleDelay       Role = "delay"
	RoleAction      Role = "action"
)

const (
	routingLabel = "AI Routing"
	agentLabel   = "AI Agent"
	ifElseLabel  = "If/Else"

	idSeparator = "-"
)

// Classify returns the role of a node. Checks run from the most specific
// role to the least; anything unmatched is a generic action.
func Classify(n schema.TimelineNode) Role {
	label := strings.ToLower(n.Label)
	app := strings.ToLower(n.App)

	switch {
	case n.Kind == schema.KindInput || n.Icon == schema.IconPlay:
		return RoleInput
	case n.Kind == schema.KindOutput || n.Icon == schema.IconSend:
		return RoleOutput
	case n.Icon == schema.IconZap || n.Label == agentLabel ||
		strings.Contains(app, "openai") || strings.Contains(app, "anthropic"):
		return RoleLLM
	case n.Label == routingLabel:
		return RoleRouting
	case n.Icon == schema.IconBranch || n.Label == ifElseLabel:
		return RoleIfElse
	case n.HasChildren || n.Icon == schema.IconFolder ||
		strings.Contains(label, "loop") || strings.Contains(label, "subflow"):
		return RoleLoopSubflow
	case strings.Contains(label, "delay"):
		return RoleDelay
	default:
		return RoleAction
	}
}

// DeriveIdentifier returns the display identifier for node given the ordered,
// visibility-filtered node list. Role counters other than action count
// earlier nodes carrying the same label, so two roles sharing a label share a
// counter. Action counters count every earlier action node.
//
// With a nil list, or when node is not part of it, the identifier falls back
// to FallbackIdentifier.
func DeriveIdentifier(visible []schema.TimelineNode, node schema.TimelineNode) string {
	pos := indexOf(visible, node.ID)
	if pos < 0 {
		return FallbackIdentifier(node.ID)
	}

	role := Classify(node)
	switch role {
	case RoleInput:
		return "in-0"
	case RoleRouting:
		return string(RoleRouting)
	case RoleAction:
		k := 0
		for _, n := range visible[:pos] {
			if Classify(n) == RoleAction {
				k++
			}
		}
		return fmt.Sprintf("%s-%d", role, k)
	default:
		k := 0
		for _, n := range visible[:pos] {
			if n.Label == node.Label {
				k++
			}
		}
		return fmt.Sprintf("%s-%d", role, k)
	}
}

// Identifiers derives the identifier of every node in visible, keyed by node ID.
func Identifiers(visible []schema.TimelineNode) map[string]string {
	out := make(map[string]string, len(visible))
	for _, n := range visible {
		out[n.ID] = DeriveIdentifier(visible, n)
	}
	return out
}

// FallbackIdentifier uses the last two separator-delimited segments of a raw
// node ID, or the ID itself when it has no separator.
func FallbackIdentifier(id string) string {
	if !strings.Contains(id, idSeparator) {
		return id
	}
	parts := strings.Split(id, idSeparator)
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return strings.Join(parts, idSeparator)
}

func indexOf(nodes []schema.TimelineNode, id string) int {
	for i, n := range nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
