package changefeed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestMemoryFeedTopicFilter(t *testing.T) {
	feed := NewMemoryFeed(zerolog.Nop())
	ctx := context.Background()

	students, cancelStudents := feed.Subscribe(TopicStudents)
	defer cancelStudents()
	all, cancelAll := feed.Subscribe()
	defer cancelAll()

	require.NoError(t, feed.Publish(ctx, Event{Topic: TopicCorrections, ID: "r1"}))

	ev := receive(t, all)
	assert.Equal(t, TopicCorrections, ev.Topic)
	assert.False(t, ev.At.IsZero())

	select {
	case ev := <-students:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}

	require.NoError(t, feed.Publish(ctx, Event{Topic: TopicStudents, ID: "s1", AcademicYear: "2024/2025"}))
	ev = receive(t, students)
	assert.Equal(t, "s1", ev.ID)
}

func TestMemoryFeedCoalescesForSlowListener(t *testing.T) {
	feed := NewMemoryFeed(zerolog.Nop())
	ctx := context.Background()

	ch, cancel := feed.Subscribe(TopicStudents)
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, feed.Publish(ctx, Event{Topic: TopicStudents}))
	}

	receive(t, ch)
	select {
	case <-ch:
		t.Fatal("expected a single coalesced event")
	default:
	}
}

func TestMemoryFeedCancel(t *testing.T) {
	feed := NewMemoryFeed(zerolog.Nop())

	ch, cancel := feed.Subscribe(TopicStudents)
	assert.Equal(t, 1, feed.ListenerCount())

	cancel()
	cancel()
	assert.Equal(t, 0, feed.ListenerCount())

	_, ok := <-ch
	assert.False(t, ok)

	require.NoError(t, feed.Close())
	ch, _ = feed.Subscribe()
	_, ok = <-ch
	assert.False(t, ok)
}
