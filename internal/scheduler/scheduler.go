// Package scheduler replays runs on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hellodavidux/runtrace/internal/logging"
	"github.com/hellodavidux/runtrace/internal/playback"
	"github.com/hellodavidux/runtrace/pkg/schema"
)

// ReplayFunc replays one run.
type ReplayFunc func(ctx context.Context, runID string) error

// Config configures a Scheduler. Zero values use the system clock, real
// timers and slog.Default.
type Config struct {
	Clock    playback.Clock
	After    func(time.Duration) <-chan time.Time
	NewRunID func() string
	Logger   *slog.Logger
}

// Scheduler fires a replay with a fresh run id on every tick of a cron
// schedule. Replays never overlap: a tick that falls inside a running
// replay is skipped.
type Scheduler struct {
	parser   cron.Parser
	replay   ReplayFunc
	clock    playback.Clock
	after    func(time.Duration) <-chan time.Time
	newRunID func() string
	logger   *slog.Logger
}

// New creates a Scheduler. Without cfg.NewRunID every replay uses the empty
// run id, which shows the canonical timings.
func New(replay ReplayFunc, cfg Config) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = playback.SystemClock{}
	}
	if cfg.After == nil {
		cfg.After = time.After
	}
	if cfg.NewRunID == nil {
		cfg.NewRunID = func() string { return "" }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{
		parser:   cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		replay:   replay,
		clock:    cfg.Clock,
		after:    cfg.After,
		newRunID: cfg.NewRunID,
		logger:   cfg.Logger,
	}
}

// Next computes the next fire time of a cron expression after from.
func (s *Scheduler) Next(expr string, from time.Time) (time.Time, error) {
	schedule, err := s.parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return nextFire(schedule, expr, from)
}

// nextFire rejects schedules that never fire again; cron reports those as
// the zero time.
func nextFire(schedule cron.Schedule, expr string, from time.Time) (time.Time, error) {
	next := schedule.Next(from)
	if next.IsZero() {
		return time.Time{}, schema.NewErrorf(schema.ErrCodeValidation, "cron expression %q never fires", expr).
			WithDetails(map[string]any{"expression": expr})
	}
	return next, nil
}

func (s *Scheduler) parse(expr string) (cron.Schedule, error) {
	schedule, err := s.parser.Parse(expr)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "parse cron expression %q", expr).
			WithCause(err).
			WithDetails(map[string]any{"expression": expr})
	}
	return schedule, nil
}

// Run replays on schedule until ctx is cancelled or limit replays have run.
// A non-positive limit runs until cancellation. Replay errors are logged and
// do not stop the schedule.
func (s *Scheduler) Run(ctx context.Context, expr string, limit int) error {
	schedule, err := s.parse(expr)
	if err != nil {
		return err
	}

	s.logger.Info("replay schedule started", slog.String("schedule", expr))
	for n := 0; limit <= 0 || n < limit; n++ {
		now := s.clock.Now()
		next, err := nextFire(schedule, expr, now)
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			s.logger.Info("replay schedule stopped", slog.Int("replays", n))
			return ctx.Err()
		case <-s.after(next.Sub(now)):
		}

		runID := s.newRunID()
		runCtx := logging.WithRunID(ctx, runID)
		if err := s.replay(runCtx, runID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.LogWith(runCtx, s.logger).Error("scheduled replay failed", slog.String("error", err.Error()))
		}
	}
	s.logger.Info("replay schedule finished", slog.Int("replays", limit))
	return nil
}
