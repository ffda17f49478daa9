package gantt

import (
	"math"

	"github.com/hellodavidux/runtrace/internal/playback"
	"github.com/hellodavidux/runtrace/internal/timeline"
	"github.com/hellodavidux/runtrace/pkg/schema"
)

// Builder turns a canonical node list into timeline rows.
type Builder struct {
	variants *timeline.VariantCache
	sim      *playback.Simulator
}

// NewBuilder creates a Builder over the canonical nodes. A nil simulator
// uses the default animation window.
func NewBuilder(canonical []schema.TimelineNode, sim *playback.Simulator) *Builder {
	if sim == nil {
		sim = playback.NewSimulator(0)
	}
	return &Builder{
		variants: timeline.NewVariantCache(canonical),
		sim:      sim,
	}
}

// Nodes returns the node list for a run: the canonical list for an empty
// run ID, its deterministic variant otherwise.
func (b *Builder) Nodes(runID string) []schema.TimelineNode {
	return b.variants.Get(runID)
}

// Build derives identifiers, playback status and bar geometry for the
// visible nodes of a run.
func (b *Builder) Build(opts Options) *Result {
	visible := timeline.Visible(b.Nodes(opts.RunID), opts.Collapsed)
	snap, states := b.sim.Evaluate(visible, playback.State{
		Running:   opts.Running,
		StartTime: opts.StartTime,
		Now:       opts.Now,
	})

	res := &Result{
		RunID:        opts.RunID,
		Rows:         make([]Row, len(states)),
		HorizonSec:   snap.HorizonSec,
		Active:       snap.Active,
		Progress:     snap.Progress,
		SimulatedSec: snap.SimulatedSec,
	}
	if opts.Compact {
		res.AreaWidthPx = CompactPxPerSec * snap.HorizonSec
	}

	for i, st := range states {
		res.Rows[i] = Row{
			Node:       st.Node,
			Identifier: timeline.DeriveIdentifier(visible, st.Node),
			Role:       timeline.Classify(st.Node),
			Phase:      st.Phase,
			Status:     st.Status,
			Selected:   opts.SelectedNodeID != "" && opts.SelectedNodeID == st.Node.ID,
			Bar:        barFor(st, snap, res.AreaWidthPx, opts.Compact),
		}
	}

	if opts.Compact && snap.Active && opts.ViewportWidth > 0 {
		scrollMax := res.AreaWidthPx - opts.ViewportWidth
		res.ScrollPx = playback.ScrollTarget(snap.Progress, res.AreaWidthPx, opts.ViewportWidth, scrollMax)
	}
	return res
}

func barFor(st playback.NodeState, snap playback.Snapshot, areaPx float64, compact bool) Bar {
	n := st.Node
	bar := Bar{
		LeftPct:  n.StartSec / snap.HorizonSec * 100,
		WidthPct: math.Max(n.Duration()/snap.HorizonSec*100, MinWidthPct),
	}
	bar.ShowLabel = bar.WidthPct >= DurationLabelPct
	if !compact {
		return bar
	}

	bar.LeftPx = n.StartSec / snap.HorizonSec * areaPx
	var w float64
	switch {
	case st.Status == schema.DisplaySkipped:
		w = 0
	case !snap.Active:
		w = CompactDonePill
	case st.Phase == schema.PhasePending:
		w = 0
	case st.Phase == schema.PhaseRunning:
		w = (snap.SimulatedSec - n.StartSec) * CompactPxPerSec
	default:
		w = n.Duration() * CompactPxPerSec
	}
	if w > 0 {
		w = math.Max(w, CompactMinBarPx)
	}
	bar.WidthPx = w
	return bar
}
