package timeline

import (
	"math"
	"strconv"
	"sync"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

// Jitter bounds, in centiseconds. Offsets span [-1.5s, +1.5s] and duration
// deltas span [-1.2s, +1.8s].
const (
	startOffsetMinCs   = -150
	startOffsetSpanCs  = 301
	durationDeltaMinCs = -120
	durationDeltaSpan  = 301

	// MinDurationSec is the shortest interval a varied node can have.
	MinDurationSec = 0.3
	minDurationCs  = 30
	horizonCs      = int64(DisplayHorizonSec * 100)
)

// HashString is a 31-multiplier rolling hash over the runes of s with 32-bit
// wraparound: h = (h << 5) - h + c.
func HashString(s string) int32 {
	var h int32
	for _, c := range s {
		h = (h << 5) - h + int32(c)
	}
	return h
}

// VaryTimings returns a copy of nodes whose intervals are perturbed by a
// deterministic function of runID, node ID and position. An empty runID
// returns nodes itself.
func VaryTimings(runID string, nodes []schema.TimelineNode) []schema.TimelineNode {
	if runID == "" {
		return nodes
	}

	runHash := HashString(runID)
	out := make([]schema.TimelineNode, len(nodes))
	for i, n := range nodes {
		seed := strconv.FormatInt(int64(runHash), 10) + ":" + n.ID + ":" + strconv.Itoa(i)
		u := uint32(HashString(seed))

		offsetCs := int64(u%startOffsetSpanCs) + startOffsetMinCs
		deltaCs := int64((u/startOffsetSpanCs)%durationDeltaSpan) + durationDeltaMinCs

		startCs := toCs(n.StartSec) + offsetCs
		if startCs < 0 {
			startCs = 0
		}
		durCs := toCs(n.EndSec) - toCs(n.StartSec) + deltaCs
		if durCs < minDurationCs {
			durCs = minDurationCs
		}
		endCs := startCs + durCs
		if endCs > horizonCs {
			endCs = horizonCs
			if endCs-startCs < minDurationCs {
				startCs = endCs - minDurationCs
			}
		}

		v := n
		v.StartSec = fromCs(startCs)
		v.EndSec = fromCs(endCs)
		out[i] = v
	}
	return out
}

func toCs(sec float64) int64 {
	return int64(math.Round(sec * 100))
}

func fromCs(cs int64) float64 {
	return float64(cs) / 100
}

// VariantCache memoizes run variants of one canonical node list for the
// lifetime of a view.
type VariantCache struct {
	canonical []schema.TimelineNode

	mu       sync.Mutex
	variants map[string][]schema.TimelineNode
}

// NewVariantCache creates a cache over the canonical node list.
func NewVariantCache(canonical []schema.TimelineNode) *VariantCache {
	return &VariantCache{
		canonical: canonical,
		variants:  make(map[string][]schema.TimelineNode),
	}
}

// Canonical returns the unvaried node list.
func (c *VariantCache) Canonical() []schema.TimelineNode {
	return c.canonical
}

// Get returns the variant for runID, computing it on first use.
func (c *VariantCache) Get(runID string) []schema.TimelineNode {
	if runID == "" {
		return c.canonical
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.variants[runID]; ok {
		return v
	}
	v := VaryTimings(runID, c.canonical)
	c.variants[runID] = v
	return v
}

// Len returns the number of cached variants.
func (c *VariantCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.variants)
}
