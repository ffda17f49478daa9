package playback

import (
	"context"
	"log/slog"
	"time"

	"github.com/hellodavidux/runtrace/internal/logging"
)

// StepFunc re-evaluates a live run at now. Returning done stops the player.
type StepFunc func(ctx context.Context, now time.Time) (done bool, err error)

// Player drives a StepFunc on a fixed cooperative interval. The interval
// timer belongs to a single Run call and is stopped when it returns.
type Player struct {
	clock    Clock
	interval time.Duration
	logger   *slog.Logger
}

// NewPlayer creates a Player. A nil clock uses SystemClock, a non-positive
// interval uses DefaultPollInterval and a nil logger uses slog.Default.
func NewPlayer(clock Clock, interval time.Duration, logger *slog.Logger) *Player {
	if clock == nil {
		clock = SystemClock{}
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{clock: clock, interval: interval, logger: logger}
}

// Interval returns the polling interval.
func (p *Player) Interval() time.Duration {
	return p.interval
}

// Run evaluates step immediately and then on every tick until step reports
// done, step fails, or ctx is cancelled. Cancellation returns ctx.Err().
func (p *Player) Run(ctx context.Context, step StepFunc) error {
	log := logging.LogWith(ctx, p.logger)

	done, err := step(ctx, p.clock.Now())
	if err != nil || done {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			log.Debug("playback stopped", slog.Int("ticks", ticks))
			return ctx.Err()
		case <-ticker.C:
			ticks++
			done, err := step(ctx, p.clock.Now())
			if err != nil {
				log.Warn("playback step failed", slog.Int("ticks", ticks), slog.String("error", err.Error()))
				return err
			}
			if done {
				log.Debug("playback finished", slog.Int("ticks", ticks))
				return nil
			}
		}
	}
}
