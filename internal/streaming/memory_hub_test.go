package streaming

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan StreamEvent) StreamEvent {
	t.Helper()
	select {
	case got, ok := <-ch:
		require.True(t, ok, "channel closed")
		return got
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return StreamEvent{}
}

func assertEmpty(t *testing.T, ch <-chan StreamEvent) {
	t.Helper()
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishSubscribe(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Publish(ctx, StreamEvent{
		RunID:     "run-1",
		NodeID:    "2",
		EventType: "node_status_changed",
		Payload:   map[string]any{"status": "running"},
	}))

	got := recv(t, ch)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "2", got.NodeID)
	assert.Equal(t, "node_status_changed", got.EventType)
	assert.Equal(t, uint64(1), got.Seq)
}

func TestFilterByRunID(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{RunID: "run-1"})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Publish(ctx, StreamEvent{RunID: "run-1", EventType: "playback_frame"}))
	require.NoError(t, hub.Publish(ctx, StreamEvent{RunID: "run-2", EventType: "playback_frame"}))

	assert.Equal(t, "run-1", recv(t, ch).RunID)
	assertEmpty(t, ch)
}

func TestFilterByEventType(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{
		EventTypes: []string{"node_status_changed", "playback_completed"},
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Publish(ctx, StreamEvent{RunID: "r", EventType: "node_status_changed"}))
	require.NoError(t, hub.Publish(ctx, StreamEvent{RunID: "r", EventType: "playback_frame"}))
	require.NoError(t, hub.Publish(ctx, StreamEvent{RunID: "r", EventType: "playback_completed"}))

	assert.Equal(t, "node_status_changed", recv(t, ch).EventType)
	assert.Equal(t, "playback_completed", recv(t, ch).EventType)
	assertEmpty(t, ch)
}

func TestMultipleSubscribers(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch1, cancel1, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancel1()
	ch2, cancel2, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancel2()

	require.NoError(t, hub.Publish(ctx, StreamEvent{RunID: "run-1", EventType: "playback_frame"}))

	for _, ch := range []<-chan StreamEvent{ch1, ch2} {
		got := recv(t, ch)
		assert.Equal(t, "run-1", got.RunID)
	}
	assert.Equal(t, 2, hub.Subscribers())
}

func TestCancelClosesChannel(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)

	cancel()
	cancel() // idempotent

	require.NoError(t, hub.Publish(ctx, StreamEvent{RunID: "run-1", EventType: "playback_frame"}))

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestSlowSubscriberKeepsNewest(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancel()

	total := defaultChannelBuffer + 10
	for i := 0; i < total; i++ {
		require.NoError(t, hub.Publish(ctx, StreamEvent{RunID: "run-1", EventType: "playback_frame"}))
	}
	require.NoError(t, hub.Publish(ctx, StreamEvent{RunID: "run-1", EventType: "playback_completed"}))

	var last StreamEvent
	drained := 0
	for {
		select {
		case evt := <-ch:
			last = evt
			drained++
			continue
		default:
		}
		break
	}
	assert.Equal(t, defaultChannelBuffer, drained)
	assert.Equal(t, "playback_completed", last.EventType)
	assert.Equal(t, uint64(total+1), last.Seq)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()
	const goroutines = 20
	const eventsPerGoroutine = 50

	var wg sync.WaitGroup

	cancels := make([]func(), goroutines)
	for i := 0; i < goroutines; i++ {
		_, cancel, err := hub.Subscribe(ctx, EventFilter{})
		require.NoError(t, err)
		cancels[i] = cancel
	}
	defer func() {
		for _, c := range cancels {
			c()
		}
	}()

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				_ = hub.Publish(ctx, StreamEvent{RunID: "run-concurrent", EventType: "playback_frame"})
			}
		}()
	}

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
			if err != nil {
				return
			}
			for range 5 {
				select {
				case <-ch:
				case <-time.After(10 * time.Millisecond):
				}
			}
			cancel()
		}()
	}

	wg.Wait()
}

func TestCancelledContext(t *testing.T) {
	hub := NewMemoryHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, hub.Publish(ctx, StreamEvent{RunID: "run-1"}), context.Canceled)
	_, _, err := hub.Subscribe(ctx, EventFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}
