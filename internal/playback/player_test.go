package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerStopsWhenDone(t *testing.T) {
	p := NewPlayer(nil, time.Millisecond, nil)
	calls := 0
	err := p.Run(context.Background(), func(context.Context, time.Time) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPlayerImmediateDone(t *testing.T) {
	p := NewPlayer(nil, time.Hour, nil)
	calls := 0
	err := p.Run(context.Background(), func(context.Context, time.Time) (bool, error) {
		calls++
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPlayerCancellation(t *testing.T) {
	p := NewPlayer(nil, time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := p.Run(ctx, func(context.Context, time.Time) (bool, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls, 2)
}

func TestPlayerStepError(t *testing.T) {
	p := NewPlayer(nil, time.Millisecond, nil)
	boom := errors.New("boom")
	calls := 0
	err := p.Run(context.Background(), func(context.Context, time.Time) (bool, error) {
		calls++
		if calls == 2 {
			return false, boom
		}
		return false, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestPlayerUsesClock(t *testing.T) {
	clock := NewManualClock(t0)
	p := NewPlayer(clock, time.Millisecond, nil)
	assert.Equal(t, time.Millisecond, p.Interval())

	var seen []time.Time
	err := p.Run(context.Background(), func(_ context.Context, now time.Time) (bool, error) {
		seen = append(seen, now)
		clock.Advance(time.Second)
		return len(seen) == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{t0, t0.Add(time.Second), t0.Add(2 * time.Second)}, seen)
}

func TestNewPlayerDefaults(t *testing.T) {
	p := NewPlayer(nil, 0, nil)
	assert.Equal(t, DefaultPollInterval, p.Interval())
}
