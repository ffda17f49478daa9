package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMermaid(t *testing.T) {
	output := RenderMermaid(Build("Support agent", built(nil)))

	assert.True(t, strings.HasPrefix(output, "graph LR\n"))
	assert.Contains(t, output, "%% Support agent")

	// Shapes by kind.
	assert.Contains(t, output, `n_1(["User Input · in-0"])`)
	assert.Contains(t, output, `n_2{{"AI Agent · llm-0"}}`)
	assert.Contains(t, output, `n_3{"AI Routing · routing"}`)
	assert.Contains(t, output, `n_5["Send Email · action-0"]`)
	assert.Contains(t, output, `__start__(("Start"))`)

	// Group rendered as a subgraph with its chain.
	assert.Contains(t, output, `subgraph n_9_group["Project node"]`)
	assert.Contains(t, output, "n_9 --> n_9a")
	assert.Contains(t, output, "__start__ --> n_1")
	assert.Contains(t, output, "n_8 --> __end__")

	assert.Contains(t, output, "classDef error")
	assert.Contains(t, output, "class n_5 error")
	assert.Contains(t, output, "class n_8 skipped")
	assert.NotContains(t, output, "class __start__")
}

func TestMermaidSafeID(t *testing.T) {
	assert.Equal(t, "n_node_a_1", mermaidSafeID("node-a.1"))
	assert.Equal(t, StartID, mermaidSafeID(StartID))
}

func TestMermaidEscapeLabel(t *testing.T) {
	assert.Equal(t, "say 'hi'  now, then", mermaidEscapeLabel(`say "hi": now; then`))
}

func TestRenderMermaidGantt(t *testing.T) {
	output := RenderMermaidGantt(Build("Support agent", built(nil)))

	assert.True(t, strings.HasPrefix(output, "gantt\n"))
	assert.Contains(t, output, "title Support agent")
	assert.Contains(t, output, "dateFormat x")
	assert.Contains(t, output, "section Run\n")
	assert.Contains(t, output, "User Input · in-0 :done, n_1, 0, 1200\n")
	assert.Contains(t, output, "Send Email · action-0 :crit, n_5, 9500, 11000\n")
	assert.Contains(t, output, "Output · out-0 :n_8, 15000, 16000\n")
	assert.Contains(t, output, "section Project node\n")
	assert.Contains(t, output, "n_9a, 11500, 13000\n")
}
