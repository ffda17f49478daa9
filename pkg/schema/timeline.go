package schema

// Icon is a presentation tag for a timeline node.
type Icon string

const (
	IconPlay   Icon = "play"
	IconZap    Icon = "zap"
	IconFile   Icon = "file"
	IconMail   Icon = "mail"
	IconCheck  Icon = "check"
	IconSend   Icon = "send"
	IconFolder Icon = "folder"
	IconRoute  Icon = "route"
	IconBranch Icon = "branch"
)

// Kind is the canvas node type a timeline node was built from, when known.
type Kind string

const (
	KindInput  Kind = "input"
	KindOutput Kind = "output"
	KindAction Kind = "action"
)

// TimelineNode is one step of a workflow run as shown on the timeline.
type TimelineNode struct {
	ID          string         `json:"id" yaml:"id"`
	Label       string         `json:"label" yaml:"label"`
	StartSec    float64        `json:"start_sec" yaml:"start_sec"`
	EndSec      float64        `json:"end_sec" yaml:"end_sec"`
	Depth       int            `json:"depth" yaml:"depth"`
	HasChildren bool           `json:"has_children,omitempty" yaml:"has_children,omitempty"`
	Icon        Icon           `json:"icon,omitempty" yaml:"icon,omitempty"`
	Status      Status         `json:"status,omitempty" yaml:"status,omitempty"`
	Kind        Kind           `json:"kind,omitempty" yaml:"kind,omitempty"`
	App         string         `json:"app,omitempty" yaml:"app,omitempty"`
	Input       map[string]any `json:"input,omitempty" yaml:"input,omitempty"`
	Output      map[string]any `json:"output,omitempty" yaml:"output,omitempty"`
}

// Duration returns the length of the node's interval in seconds.
func (n TimelineNode) Duration() float64 {
	return n.EndSec - n.StartSec
}

// TerminalStatus returns the node's outcome, defaulting to success.
func (n TimelineNode) TerminalStatus() DisplayStatus {
	if n.Status == StatusError {
		return DisplayError
	}
	return DisplaySuccess
}

// RunSummary is one row of the run list.
type RunSummary struct {
	RunID          string    `json:"run_id" yaml:"run_id"`
	ConversationID string    `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	Created        string    `json:"created,omitempty" yaml:"created,omitempty"`
	Status         RunStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Input          string    `json:"input,omitempty" yaml:"input,omitempty"`
	Output         string    `json:"output,omitempty" yaml:"output,omitempty"`
	Latency        string    `json:"latency,omitempty" yaml:"latency,omitempty"`
	Tokens         int       `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	User           string    `json:"user,omitempty" yaml:"user,omitempty"`
}

// Fixture is the on-disk document holding a workflow's canonical nodes and
// its recorded runs.
type Fixture struct {
	Workflow string         `json:"workflow" yaml:"workflow"`
	Nodes    []TimelineNode `json:"nodes" yaml:"nodes"`
	Runs     []RunSummary   `json:"runs,omitempty" yaml:"runs,omitempty"`
}

// Run looks up a run by ID.
func (f *Fixture) Run(runID string) (RunSummary, bool) {
	for _, r := range f.Runs {
		if r.RunID == runID {
			return r, true
		}
	}
	return RunSummary{}, false
}
