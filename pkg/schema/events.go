package schema

// Event type constants for playback streaming.
const (
	EventPlaybackStarted   = "playback_started"
	EventPlaybackFrame     = "playback_frame"
	EventNodeStatusChanged = "node_status_changed"
	EventPlaybackCompleted = "playback_completed"
	EventPlaybackStopped   = "playback_stopped"
)

// Status is the terminal outcome recorded on a timeline node.
// The zero value means the node succeeded.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Phase is the derived lifecycle state of a node during simulated playback.
type Phase string

const (
	PhasePending  Phase = "pending"
	PhaseRunning  Phase = "running"
	PhaseFinished Phase = "finished"
)

// DisplayStatus is what a view shows for a node.
type DisplayStatus string

const (
	DisplayPending DisplayStatus = "pending"
	DisplayRunning DisplayStatus = "running"
	DisplaySuccess DisplayStatus = "success"
	DisplayError   DisplayStatus = "error"
	DisplaySkipped DisplayStatus = "skipped"
)

// IsTerminal reports whether the status ends the node's lifecycle.
func (s DisplayStatus) IsTerminal() bool {
	return s == DisplaySuccess || s == DisplayError || s == DisplaySkipped
}

// RunStatus mirrors the badge shown for a whole run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
	RunStatusRunning RunStatus = "running"
)
