package playback

import (
	"math"
	"time"

	"github.com/hellodavidux/runtrace/internal/timeline"
	"github.com/hellodavidux/runtrace/pkg/schema"
)

const (
	// DefaultAnimationWindow is how long a simulated run takes to play back,
	// independent of the node durations.
	DefaultAnimationWindow = 5 * time.Second
	// DefaultPollInterval is how often a live run is re-evaluated.
	DefaultPollInterval = 80 * time.Millisecond

	scrollLeadFraction = 0.4
)

// State is the input a host view passes to the simulator.
type State struct {
	Running   bool
	StartTime *time.Time
	Now       time.Time
}

// Snapshot is the simulator's view of a run at one instant.
type Snapshot struct {
	Active       bool
	Progress     float64
	SimulatedSec float64
	HorizonSec   float64
}

// NodeState is the derived playback status of one node.
type NodeState struct {
	Node   schema.TimelineNode
	Phase  schema.Phase
	Status schema.DisplayStatus
}

// Simulator maps wall-clock time onto node phases.
type Simulator struct {
	AnimationWindow time.Duration
}

// NewSimulator creates a Simulator with the given animation window.
// A non-positive window uses DefaultAnimationWindow.
func NewSimulator(window time.Duration) *Simulator {
	if window <= 0 {
		window = DefaultAnimationWindow
	}
	return &Simulator{AnimationWindow: window}
}

// Progress returns the fraction of the animation window elapsed since start.
// The second result is false when no simulation applies: the run is not
// running or has no start time.
func (s *Simulator) Progress(now time.Time, start *time.Time, running bool) (float64, bool) {
	if !running || start == nil {
		return 0, false
	}
	elapsed := now.Sub(*start).Seconds()
	p := elapsed / s.window().Seconds()
	return math.Max(0, math.Min(1, p)), true
}

// Snapshot computes the simulated time for the visible nodes.
func (s *Simulator) Snapshot(visible []schema.TimelineNode, st State) Snapshot {
	horizon := timeline.Horizon(visible)
	p, active := s.Progress(st.Now, st.StartTime, st.Running)
	if !active {
		return Snapshot{HorizonSec: horizon}
	}
	return Snapshot{
		Active:       true,
		Progress:     p,
		SimulatedSec: p * horizon,
		HorizonSec:   horizon,
	}
}

// Evaluate derives the phase and display status of each visible node.
func (s *Simulator) Evaluate(visible []schema.TimelineNode, st State) (Snapshot, []NodeState) {
	snap := s.Snapshot(visible, st)
	return snap, EvaluateAt(visible, snap)
}

// EvaluateAt derives node states for an already computed snapshot.
func EvaluateAt(visible []schema.TimelineNode, snap Snapshot) []NodeState {
	cutoff, hasError := skipCutoff(visible)

	out := make([]NodeState, len(visible))
	for i, n := range visible {
		ns := NodeState{Node: n}
		switch {
		case hasError && n.StartSec >= cutoff:
			ns.Phase = PhaseAt(n, snap.SimulatedSec, snap.Active)
			ns.Status = schema.DisplaySkipped
		case !snap.Active:
			ns.Phase = schema.PhaseFinished
			ns.Status = n.TerminalStatus()
		default:
			ns.Phase = PhaseAt(n, snap.SimulatedSec, true)
			ns.Status = statusForPhase(n, ns.Phase)
		}
		out[i] = ns
	}
	return out
}

// PhaseAt returns the node's phase at simulated second sec. Outside an
// active simulation every node is finished.
func PhaseAt(n schema.TimelineNode, sec float64, active bool) schema.Phase {
	switch {
	case !active:
		return schema.PhaseFinished
	case sec < n.StartSec:
		return schema.PhasePending
	case sec < n.EndSec:
		return schema.PhaseRunning
	default:
		return schema.PhaseFinished
	}
}

func statusForPhase(n schema.TimelineNode, p schema.Phase) schema.DisplayStatus {
	switch p {
	case schema.PhasePending:
		return schema.DisplayPending
	case schema.PhaseRunning:
		return schema.DisplayRunning
	default:
		return n.TerminalStatus()
	}
}

// skipCutoff returns the earliest end time among error nodes. Every node
// starting at or after it never executes, later error nodes included.
func skipCutoff(nodes []schema.TimelineNode) (float64, bool) {
	cutoff := math.Inf(1)
	found := false
	for _, n := range nodes {
		if n.Status == schema.StatusError && n.EndSec < cutoff {
			cutoff = n.EndSec
			found = true
		}
	}
	return cutoff, found
}

// Done reports whether an active snapshot has reached the end of the animation.
func (s Snapshot) Done() bool {
	return s.Active && s.Progress >= 1
}

func (s *Simulator) window() time.Duration {
	if s.AnimationWindow <= 0 {
		return DefaultAnimationWindow
	}
	return s.AnimationWindow
}

// EaseInOutCubic is the standard cubic ease-in-out curve on [0, 1].
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// ScrollTarget returns the horizontal scroll offset that keeps the advancing
// edge of the timeline in view, clamped to [0, scrollMax].
func ScrollTarget(progress, totalWidth, visibleWidth, scrollMax float64) float64 {
	target := EaseInOutCubic(progress)*totalWidth - visibleWidth*scrollLeadFraction
	return math.Max(0, math.Min(target, scrollMax))
}
