package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hellodavidux/runtrace/internal/detail"
	"github.com/hellodavidux/runtrace/internal/gantt"
	"github.com/hellodavidux/runtrace/internal/streaming"
	"github.com/hellodavidux/runtrace/internal/session"
	"github.com/hellodavidux/runtrace/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 12, 4, 11, 25, 0, 0, time.UTC)

type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

func nodes() []schema.TimelineNode {
	return []schema.TimelineNode{
		{ID: "1", Label: "User Input", StartSec: 0, EndSec: 1.2, Icon: schema.IconPlay},
		{ID: "2", Label: "AI Agent", StartSec: 1.2, EndSec: 8, Icon: schema.IconZap, Input: map[string]any{"prompt": "hello"}},
		{ID: "2a", Label: "AI Agent", StartSec: 6.5, EndSec: 14, Icon: schema.IconZap},
		{ID: "5", Label: "Send Email", StartSec: 13.5, EndSec: 15, Icon: schema.IconMail, Status: schema.StatusError},
		{ID: "9", Label: "Project node", StartSec: 0, EndSec: 6, HasChildren: true, Icon: schema.IconFolder},
		{ID: "9a", Label: "Notion", StartSec: 1, EndSec: 3, Depth: 1, Icon: schema.IconFile},
	}
}

type harness struct {
	m      *Model
	hub    *streaming.MemoryHub
	s      *session.Session
	copied []string
}

func newHarness(t *testing.T, clock *stepClock) *harness {
	t.Helper()
	h := &harness{hub: streaming.NewMemoryHub()}
	h.s = session.New(gantt.NewBuilder(nodes(), nil), h.hub, session.Config{
		Compact:  true,
		Clock:    clock,
		Interval: time.Millisecond,
	})
	m, err := New(context.Background(), Options{
		Session: h.s,
		Hub:     h.hub,
		Title:   "Support agent",
		Theme:   detail.ThemeNoTTY,
		Copy: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
	})
	require.NoError(t, err)
	h.m = m
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.m.Update(msg)
	return cmd
}

func (h *harness) press(k string) tea.Cmd {
	switch k {
	case "down":
		return h.send(tea.KeyMsg{Type: tea.KeyDown})
	case "up":
		return h.send(tea.KeyMsg{Type: tea.KeyUp})
	case "enter":
		return h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return h.send(tea.KeyMsg{Type: tea.KeyEsc})
	case "space":
		return h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	default:
		return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

func (h *harness) click(x, y int) {
	h.send(tea.MouseMsg{X: x, Y: y, Type: tea.MouseLeft})
	h.send(tea.MouseMsg{X: x, Y: y, Type: tea.MouseRelease})
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestInitialView(t *testing.T) {
	h := newHarness(t, &stepClock{now: t0})
	view := h.m.View()
	assert.Contains(t, view, "Support agent")
	assert.Contains(t, view, "in-0")
	assert.Contains(t, view, "llm-1")
	assert.Contains(t, view, "[FAIL]")
	assert.Contains(t, view, "ERROR")
	assert.Equal(t, "1", h.s.Selected())
	assert.False(t, h.m.Frame().Active)
}

func TestCursorAndCopy(t *testing.T) {
	h := newHarness(t, &stepClock{now: t0})
	h.press("down")
	h.press("down")
	assert.Equal(t, "2a", h.s.Selected())
	h.press("up")
	assert.Equal(t, "2", h.s.Selected())

	cmd := h.press("y")
	assert.NotNil(t, cmd)
	assert.Equal(t, []string{"llm-0"}, h.copied)
	assert.Contains(t, h.m.View(), "Copied llm-0")

	for range 10 {
		h.press("down")
	}
	assert.Equal(t, "9a", h.s.Selected())
}

func TestCollapseGroup(t *testing.T) {
	h := newHarness(t, &stepClock{now: t0})
	for range 4 {
		h.press("down")
	}
	require.Equal(t, "9", h.s.Selected())

	h.press("space")
	assert.True(t, h.s.Collapsed("9"))
	_, ok := h.m.Frame().Row("9a")
	assert.False(t, ok)
	assert.Contains(t, h.m.View(), "▸ Project node")

	h.press("space")
	_, ok = h.m.Frame().Row("9a")
	assert.True(t, ok)
}

func TestDetailOverlay(t *testing.T) {
	h := newHarness(t, &stepClock{now: t0})
	h.press("down")
	h.press("enter")
	require.True(t, h.m.overlays.Open(detailOverlayID))
	assert.Equal(t, "2", h.m.detailNode)
	assert.Contains(t, h.m.detailBody, "AI Agent 0")
	assert.Contains(t, h.m.View(), "prompt")

	h.press("esc")
	assert.False(t, h.m.overlays.Open(detailOverlayID))
	assert.Empty(t, h.m.detailNode)
}

func TestMouseDismissAndSelect(t *testing.T) {
	h := newHarness(t, &stepClock{now: t0})
	h.press("enter")
	require.True(t, h.m.overlays.Open(detailOverlayID))

	top, _ := h.m.overlays.Top()
	// Inside the panel keeps it open.
	h.click(top.Bounds.X+1, top.Bounds.Y+1)
	assert.True(t, h.m.overlays.Open(detailOverlayID))

	// A click on a row dismisses the panel without selecting.
	h.click(5, rowsTop+3)
	assert.False(t, h.m.overlays.Open(detailOverlayID))
	assert.Equal(t, "1", h.s.Selected())

	h.click(5, rowsTop+3)
	assert.Equal(t, "5", h.s.Selected())
}

func TestPinnedDetailSurvivesOutsideClick(t *testing.T) {
	h := newHarness(t, &stepClock{now: t0})
	h.press("enter")
	h.press("p")
	h.click(5, rowsTop)
	assert.True(t, h.m.overlays.Open(detailOverlayID))
	assert.Contains(t, h.m.View(), "pinned")

	h.press("esc")
	assert.False(t, h.m.overlays.Open(detailOverlayID))
}

func TestDragDoesNotDismiss(t *testing.T) {
	h := newHarness(t, &stepClock{now: t0})
	h.press("enter")
	h.send(tea.MouseMsg{X: 60, Y: 1, Type: tea.MouseLeft})
	h.send(tea.MouseMsg{X: 80, Y: 1, Type: tea.MouseRelease})
	assert.True(t, h.m.overlays.Open(detailOverlayID))
}

func TestHubFrameForCurrentRun(t *testing.T) {
	h := newHarness(t, &stepClock{now: t0})
	start := t0
	live := gantt.NewBuilder(nodes(), nil).Build(gantt.Options{
		Running: true, StartTime: &start, Now: t0.Add(time.Second), Compact: true,
	})

	h.send(hubEventMsg{event: streaming.StreamEvent{RunID: "other", EventType: schema.EventPlaybackFrame, Payload: live}})
	assert.False(t, h.m.Frame().Active)

	cmd := h.send(hubEventMsg{event: streaming.StreamEvent{EventType: schema.EventPlaybackFrame, Payload: live}})
	assert.NotNil(t, cmd)
	assert.True(t, h.m.Frame().Active)
	assert.Contains(t, h.m.View(), "20%")
	assert.Contains(t, h.m.View(), "[RUN]")
}

func TestReplayRunsToCompletion(t *testing.T) {
	h := newHarness(t, &stepClock{now: t0, step: time.Second})
	cmd := h.press("r")
	require.NotNil(t, cmd)
	assert.True(t, h.m.playing)

	msg := cmd()
	done, ok := msg.(playbackDoneMsg)
	require.True(t, ok)
	assert.NoError(t, done.err)

	h.send(msg)
	assert.False(t, h.m.playing)
	assert.False(t, h.m.Frame().Active)
	assert.Equal(t, schema.RunStatusError, h.m.Frame().Status())
}

func TestNewRunChangesRunID(t *testing.T) {
	h := newHarness(t, &stepClock{now: t0})
	h.press("n")
	assert.Len(t, h.s.RunID(), 36)
	assert.Contains(t, h.m.View(), h.s.RunID())
	h.m.shutdown()
}

func TestQuitUnsubscribes(t *testing.T) {
	h := newHarness(t, &stepClock{now: t0})
	require.Equal(t, 1, h.hub.Subscribers())
	cmd := h.press("q")
	require.NotNil(t, cmd)
	assert.Equal(t, 0, h.hub.Subscribers())
}
