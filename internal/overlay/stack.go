// Package overlay tracks the floating panels a view has open and decides
// which one a pointer gesture or key press dismisses.
package overlay

import "math"

// DefaultDragThreshold is the pointer travel, in cells, from which a
// gesture counts as a drag rather than a click.
const DefaultDragThreshold = 5.0

// Reason says why an overlay was dismissed.
type Reason string

const (
	ReasonClickOutside Reason = "click_outside"
	ReasonEscape       Reason = "escape"
	ReasonDismissAll   Reason = "dismiss_all"
	ReasonReplaced     Reason = "replaced"
)

// Point is a pointer position.
type Point struct {
	X, Y int
}

// Rect is a screen region. The right and bottom edges are exclusive.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Overlay is one open panel. Exempt regions (an owner's footer buttons,
// for instance) never count as outside clicks.
type Overlay struct {
	ID      string
	Owner   string
	Bounds  Rect
	Exempt  []Rect
	Pinned  bool
	Dismiss func(Reason)
}

func (o *Overlay) hit(p Point) bool {
	if o.Bounds.Contains(p) {
		return true
	}
	for _, r := range o.Exempt {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// ClickPolicy classifies pointer gestures.
type ClickPolicy struct {
	DragThreshold float64
}

// IsClick reports whether a down/up pair is a click: the pointer moved less
// than the drag threshold.
func (c ClickPolicy) IsClick(down, up Point) bool {
	threshold := c.DragThreshold
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	dx := float64(up.X - down.X)
	dy := float64(up.Y - down.Y)
	return math.Hypot(dx, dy) < threshold
}

// Stack is the ordered set of open overlays, topmost last. It is not safe
// for concurrent use; it belongs to the view's event loop.
type Stack struct {
	Policy ClickPolicy
	items  []*Overlay
}

// NewStack creates an empty Stack with the default click policy.
func NewStack() *Stack {
	return &Stack{Policy: ClickPolicy{DragThreshold: DefaultDragThreshold}}
}

// Push opens an overlay on top. An open overlay with the same ID is
// dismissed with ReasonReplaced first.
func (s *Stack) Push(o Overlay) {
	if i := s.index(o.ID); i >= 0 {
		s.removeAt(i, ReasonReplaced)
	}
	s.items = append(s.items, &o)
}

// Remove closes an overlay without calling its Dismiss callback.
func (s *Stack) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// SetPinned pins or unpins an open overlay.
func (s *Stack) SetPinned(id string, pinned bool) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items[i].Pinned = pinned
	return true
}

// SetBounds moves an open overlay, for views that lay out after opening.
func (s *Stack) SetBounds(id string, bounds Rect) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items[i].Bounds = bounds
	return true
}

// Top returns the topmost overlay.
func (s *Stack) Top() (Overlay, bool) {
	if len(s.items) == 0 {
		return Overlay{}, false
	}
	return *s.items[len(s.items)-1], true
}

// Open reports whether an overlay is open.
func (s *Stack) Open(id string) bool {
	return s.index(id) >= 0
}

// Len returns the number of open overlays.
func (s *Stack) Len() int {
	return len(s.items)
}

// HitTest returns the topmost overlay under p.
func (s *Stack) HitTest(p Point) (Overlay, bool) {
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].hit(p) {
			return *s.items[i], true
		}
	}
	return Overlay{}, false
}

// HandlePointer applies a completed pointer gesture. A click outside every
// open overlay dismisses the topmost one unless it is pinned. Gestures that
// start or end inside any overlay, and drags, change nothing. It returns
// the ID of the dismissed overlay.
func (s *Stack) HandlePointer(down, up Point) (string, bool) {
	if len(s.items) == 0 {
		return "", false
	}
	if _, inside := s.HitTest(down); inside {
		return "", false
	}
	if _, inside := s.HitTest(up); inside {
		return "", false
	}
	if !s.Policy.IsClick(down, up) {
		return "", false
	}
	top := s.items[len(s.items)-1]
	if top.Pinned {
		return "", false
	}
	id := top.ID
	s.removeAt(len(s.items)-1, ReasonClickOutside)
	return id, true
}

// Escape dismisses the topmost overlay, pinned or not.
func (s *Stack) Escape() (string, bool) {
	if len(s.items) == 0 {
		return "", false
	}
	id := s.items[len(s.items)-1].ID
	s.removeAt(len(s.items)-1, ReasonEscape)
	return id, true
}

// DismissAll unwinds the stack from the top and returns the dismissed IDs
// in order.
func (s *Stack) DismissAll() []string {
	ids := make([]string, 0, len(s.items))
	for len(s.items) > 0 {
		i := len(s.items) - 1
		ids = append(ids, s.items[i].ID)
		s.removeAt(i, ReasonDismissAll)
	}
	return ids
}

func (s *Stack) index(id string) int {
	for i, o := range s.items {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (s *Stack) removeAt(i int, reason Reason) {
	o := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	if o.Dismiss != nil {
		o.Dismiss(reason)
	}
}
