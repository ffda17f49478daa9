// Package tui is the live terminal view of a run timeline.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hellodavidux/runtrace/internal/detail"
	"github.com/hellodavidux/runtrace/internal/gantt"
	"github.com/hellodavidux/runtrace/internal/logging"
	"github.com/hellodavidux/runtrace/internal/overlay"
	"github.com/hellodavidux/runtrace/internal/session"
	"github.com/hellodavidux/runtrace/internal/streaming"
	"github.com/hellodavidux/runtrace/pkg/schema"
)

const (
	detailOverlayID = "detail"
	toastDuration   = 3 * time.Second
)

// Options configures the view.
type Options struct {
	Session  *session.Session
	Hub      streaming.EventHub
	Title    string
	Theme    detail.Theme
	AutoPlay bool
	Logger   *slog.Logger
	// Copy writes to the system clipboard; nil uses atotto/clipboard.
	Copy func(string) error
}

type hubEventMsg struct {
	event streaming.StreamEvent
}

type hubClosedMsg struct{}

type playbackDoneMsg struct {
	err error
}

type toastExpiredMsg struct {
	id int
}

// Model is the Bubble Tea model hosting the compact timeline.
type Model struct {
	ctx     context.Context
	session *session.Session
	logger  *slog.Logger
	copy    func(string) error
	title   string
	theme   detail.Theme

	events      <-chan streaming.StreamEvent
	unsubscribe func()
	autoPlay    bool
	cancelPlay  context.CancelFunc
	playing     bool
	replay      bool

	keys     keyMap
	help     help.Model
	styles   styles
	overlays *overlay.Stack
	down     *overlay.Point

	width, height int
	frame         *gantt.Result
	cursor        int

	detailNode string
	detailBody string

	toast   string
	toastID int
}

// New subscribes to the hub and builds the initial frame.
func New(ctx context.Context, opts Options) (*Model, error) {
	if opts.Session == nil {
		return nil, errors.New("tui: session is required")
	}
	if opts.Hub == nil {
		return nil, errors.New("tui: event hub is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	if opts.Theme == "" {
		opts.Theme = detail.ThemeAuto
	}

	ctx = logging.WithView(ctx, "tui")
	events, unsubscribe, err := opts.Hub.Subscribe(ctx, streaming.EventFilter{
		EventTypes: []string{
			schema.EventPlaybackFrame,
			schema.EventPlaybackCompleted,
			schema.EventPlaybackStopped,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tui: subscribe: %w", err)
	}

	m := &Model{
		ctx:         ctx,
		session:     opts.Session,
		logger:      opts.Logger,
		copy:        opts.Copy,
		title:       opts.Title,
		theme:       opts.Theme,
		events:      events,
		unsubscribe: unsubscribe,
		autoPlay:    opts.AutoPlay,
		keys:        newKeyMap(),
		help:        help.New(),
		styles:      newStyles(),
		overlays:    overlay.NewStack(),
	}
	m.frame = m.session.Current()
	m.syncCursor()
	return m, nil
}

// Init starts listening for playback events, and playback itself when
// AutoPlay is set.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(m.events)}
	if m.autoPlay {
		cmds = append(cmds, m.startPlayback())
	}
	return tea.Batch(cmds...)
}

func waitForEvent(ch <-chan streaming.StreamEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return hubClosedMsg{}
		}
		return hubEventMsg{event: ev}
	}
}

func (m *Model) startPlayback() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelPlay = cancel
	m.playing = true
	s := m.session
	return func() tea.Msg {
		return playbackDoneMsg{err: s.Play(ctx)}
	}
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.session.SetViewport(float64(m.timelineColumns() * cellPx))
		m.refresh()
		m.renderDetail()

	case hubEventMsg:
		m.handleEvent(msg.event)
		cmd = waitForEvent(m.events)

	case hubClosedMsg:
		m.events = nil

	case playbackDoneMsg:
		m.playing = false
		if m.cancelPlay != nil {
			m.cancelPlay()
			m.cancelPlay = nil
		}
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.logger.Warn("playback failed", slog.String("error", msg.err.Error()))
		}
		m.refresh()
		if m.replay {
			m.replay = false
			cmd = m.startPlayback()
		}

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}

	m.layoutDetail()
	return m, cmd
}

func (m *Model) handleEvent(ev streaming.StreamEvent) {
	if ev.RunID != m.session.RunID() {
		return
	}
	switch ev.EventType {
	case schema.EventPlaybackFrame:
		if res, ok := ev.Payload.(*gantt.Result); ok {
			m.frame = res
			m.syncCursor()
		}
	case schema.EventPlaybackCompleted, schema.EventPlaybackStopped:
		m.refresh()
	}
	if m.detailNode != "" {
		m.renderDetail()
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.shutdown()
		return tea.Quit

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.close):
		m.overlays.Escape()

	case key.Matches(msg, m.keys.up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.collapse):
		if row, ok := m.selectedRow(); ok && row.Node.HasChildren {
			m.session.Toggle(row.Node.ID)
			m.refresh()
		}

	case key.Matches(msg, m.keys.detail):
		if row, ok := m.selectedRow(); ok {
			m.openDetail(row.Node.ID)
		}

	case key.Matches(msg, m.keys.pin):
		if m.overlays.Open(detailOverlayID) {
			top, _ := m.overlays.Top()
			m.overlays.SetPinned(detailOverlayID, !top.Pinned)
		}

	case key.Matches(msg, m.keys.play):
		return m.restart("")

	case key.Matches(msg, m.keys.newRun):
		return m.restart(session.NewRunID())

	case key.Matches(msg, m.keys.copyID):
		return m.copySelected()
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	p := overlay.Point{X: msg.X, Y: msg.Y}
	switch msg.Type {
	case tea.MouseLeft:
		m.down = &p
	case tea.MouseRelease:
		if m.down == nil {
			return
		}
		down := *m.down
		m.down = nil

		hadOverlay := m.overlays.Len() > 0
		m.overlays.HandlePointer(down, p)
		if hadOverlay || !m.overlays.Policy.IsClick(down, p) {
			return
		}
		if i := p.Y - rowsTop; i >= 0 && m.frame != nil && i < len(m.frame.Rows) {
			m.cursor = i
			m.session.Select(m.frame.Rows[i].Node.ID)
			m.refresh()
		}
	}
}

func (m *Model) restart(runID string) tea.Cmd {
	m.session.Restart(runID)
	m.overlays.DismissAll()
	m.refresh()
	if m.playing {
		m.replay = true
		if m.cancelPlay != nil {
			m.cancelPlay()
		}
		return nil
	}
	return m.startPlayback()
}

func (m *Model) copySelected() tea.Cmd {
	row, ok := m.selectedRow()
	if !ok {
		return m.setToast("Select a node first")
	}
	if err := m.copy(row.Identifier); err != nil {
		m.logger.Warn("clipboard write failed", slog.String("error", err.Error()))
		return m.setToast("Clipboard unavailable")
	}
	return m.setToast(fmt.Sprintf("Copied %s", row.Identifier))
}

func (m *Model) setToast(text string) tea.Cmd {
	m.toastID++
	m.toast = text
	id := m.toastID
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m *Model) openDetail(nodeID string) {
	m.detailNode = nodeID
	m.renderDetail()
	m.overlays.Push(overlay.Overlay{
		ID:    detailOverlayID,
		Owner: nodeID,
		Dismiss: func(overlay.Reason) {
			m.detailNode = ""
			m.detailBody = ""
		},
	})
}

func (m *Model) renderDetail() {
	if m.detailNode == "" || m.frame == nil {
		return
	}
	row, ok := m.frame.Row(m.detailNode)
	if !ok {
		m.overlays.Escape()
		return
	}
	md := detail.FromRow(row).Markdown()
	out, err := detail.Render(md, m.theme, m.detailWidth())
	if err != nil {
		m.logger.Debug("markdown render failed", slog.String("error", err.Error()))
	}
	m.detailBody = out
}

func (m *Model) shutdown() {
	if m.cancelPlay != nil {
		m.cancelPlay()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Model) refresh() {
	m.frame = m.session.Current()
	m.syncCursor()
}

// syncCursor keeps the cursor on the selected node across frames.
func (m *Model) syncCursor() {
	if m.frame == nil || len(m.frame.Rows) == 0 {
		m.cursor = 0
		return
	}
	if id := m.session.Selected(); id != "" {
		for i, row := range m.frame.Rows {
			if row.Node.ID == id {
				m.cursor = i
				return
			}
		}
	}
	m.cursor = min(m.cursor, len(m.frame.Rows)-1)
	m.session.Select(m.frame.Rows[m.cursor].Node.ID)
	m.frame = m.session.Current()
}

func (m *Model) moveCursor(delta int) {
	if m.frame == nil || len(m.frame.Rows) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.frame.Rows)-1, m.cursor+delta))
	m.session.Select(m.frame.Rows[m.cursor].Node.ID)
	m.refresh()
}

func (m *Model) selectedRow() (gantt.Row, bool) {
	if m.frame == nil || m.cursor >= len(m.frame.Rows) {
		return gantt.Row{}, false
	}
	return m.frame.Rows[m.cursor], true
}

// Frame returns the timeline currently shown.
func (m *Model) Frame() *gantt.Result {
	return m.frame
}
