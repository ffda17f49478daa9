package session

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hellodavidux/runtrace/internal/gantt"
	"github.com/hellodavidux/runtrace/internal/logging"
	"github.com/hellodavidux/runtrace/internal/playback"
	"github.com/hellodavidux/runtrace/internal/streaming"
	"github.com/hellodavidux/runtrace/pkg/schema"
)

// Config configures a Session. Zero values fall back to the playback defaults.
type Config struct {
	RunID         string
	Compact       bool
	ViewportWidth float64
	Clock         playback.Clock
	Interval      time.Duration
	Logger        *slog.Logger
}

// StatusChange is the payload of a node_status_changed event.
type StatusChange struct {
	NodeID     string               `json:"node_id"`
	Identifier string               `json:"identifier"`
	From       schema.DisplayStatus `json:"from,omitempty"`
	To         schema.DisplayStatus `json:"to"`
}

// Completion is the payload of playback_completed and playback_stopped.
type Completion struct {
	Status   schema.RunStatus `json:"status"`
	Progress float64          `json:"progress"`
}

// Session holds the view state of one inspected run: which run, which
// groups are collapsed, what is selected and whether playback is live.
// It is safe for concurrent use by a player goroutine and a view.
type Session struct {
	builder *gantt.Builder
	hub     streaming.EventHub
	clock   playback.Clock
	player  *playback.Player
	logger  *slog.Logger
	compact bool

	mu        sync.Mutex
	runID     string
	collapsed map[string]bool
	selected  string
	viewport  float64
	start     *time.Time
	running   bool
	last      map[string]schema.DisplayStatus
}

// New creates a Session. hub may be nil, in which case nothing is published.
func New(builder *gantt.Builder, hub streaming.EventHub, cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = playback.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{
		builder:   builder,
		hub:       hub,
		clock:     cfg.Clock,
		player:    playback.NewPlayer(cfg.Clock, cfg.Interval, cfg.Logger),
		logger:    cfg.Logger,
		compact:   cfg.Compact,
		runID:     cfg.RunID,
		viewport:  cfg.ViewportWidth,
		collapsed: make(map[string]bool),
	}
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// RunID returns the run being inspected.
func (s *Session) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Running reports whether playback is live.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Toggle collapses or expands a group node.
func (s *Session) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collapsed[id] {
		delete(s.collapsed, id)
	} else {
		s.collapsed[id] = true
	}
}

// Collapsed reports whether a group node is collapsed.
func (s *Session) Collapsed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collapsed[id]
}

// Select marks a node as selected. An empty id clears the selection.
func (s *Session) Select(id string) {
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
}

// Selected returns the selected node id.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetViewport records the visible width of the compact timeline.
func (s *Session) SetViewport(width float64) {
	s.mu.Lock()
	s.viewport = width
	s.mu.Unlock()
}

// Restart switches to runID and clears the playback state. An empty runID
// keeps the current run.
func (s *Session) Restart(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if runID != "" {
		s.runID = runID
	}
	s.start = nil
	s.running = false
	s.last = nil
}

// Frame builds the timeline at now from the current view state.
func (s *Session) Frame(now time.Time) *gantt.Result {
	s.mu.Lock()
	opts := gantt.Options{
		RunID:          s.runID,
		Collapsed:      maps.Clone(s.collapsed),
		Running:        s.running,
		StartTime:      s.start,
		Now:            now,
		Compact:        s.compact,
		ViewportWidth:  s.viewport,
		SelectedNodeID: s.selected,
	}
	s.mu.Unlock()
	return s.builder.Build(opts)
}

// Current builds the timeline at the session clock's current time.
func (s *Session) Current() *gantt.Result {
	return s.Frame(s.clock.Now())
}

// Play runs a simulated playback of the current run, publishing frames and
// status changes until it completes or ctx is cancelled.
func (s *Session) Play(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return schema.NewError(schema.ErrCodeValidation, "playback already running")
	}
	start := s.clock.Now()
	s.start = &start
	s.running = true
	s.last = nil
	runID := s.runID
	s.mu.Unlock()

	ctx = logging.WithRunID(ctx, runID)
	log := logging.LogWith(ctx, s.logger)
	log.Info("playback started")
	s.publish(ctx, runID, "", schema.EventPlaybackStarted, nil)

	err := s.player.Run(ctx, func(ctx context.Context, now time.Time) (bool, error) {
		res := s.Frame(now)
		s.publish(ctx, runID, "", schema.EventPlaybackFrame, res)
		for _, change := range s.diff(res) {
			s.publish(ctx, runID, change.NodeID, schema.EventNodeStatusChanged, change)
		}
		return res.Done(), nil
	})

	final := s.Frame(s.clock.Now())
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	done := Completion{Status: final.Status(), Progress: final.Progress}
	if err != nil {
		log.Info("playback stopped", slog.String("reason", err.Error()))
		s.publish(context.WithoutCancel(ctx), runID, "", schema.EventPlaybackStopped, done)
		return err
	}
	log.Info("playback completed", slog.String("status", string(done.Status)))
	s.publish(ctx, runID, "", schema.EventPlaybackCompleted, done)
	return nil
}

func (s *Session) diff(res *gantt.Result) []StatusChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		s.last = make(map[string]schema.DisplayStatus, len(res.Rows))
	}
	var changes []StatusChange
	for _, row := range res.Rows {
		prev, seen := s.last[row.Node.ID]
		if seen && prev == row.Status {
			continue
		}
		s.last[row.Node.ID] = row.Status
		changes = append(changes, StatusChange{
			NodeID:     row.Node.ID,
			Identifier: row.Identifier,
			From:       prev,
			To:         row.Status,
		})
	}
	return changes
}

func (s *Session) publish(ctx context.Context, runID, nodeID, eventType string, payload any) {
	if s.hub == nil {
		return
	}
	err := s.hub.Publish(ctx, streaming.StreamEvent{
		RunID:     runID,
		NodeID:    nodeID,
		EventType: eventType,
		Payload:   payload,
	})
	if err != nil {
		logging.LogWith(logging.WithNodeID(ctx, nodeID), s.logger).Debug("publish failed",
			slog.String("event_type", eventType), slog.String("error", err.Error()))
	}
}
