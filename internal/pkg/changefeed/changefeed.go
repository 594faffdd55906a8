// Package changefeed notifies in-process subscribers that a collection changed,
// so live queries can re-read their result set.
package changefeed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Topic names a watched collection
type Topic string

const (
	TopicStudents      Topic = "students"
	TopicCorrections   Topic = "corrections"
	TopicAcademicYears Topic = "academic_years"
)

// Event describes one committed change
type Event struct {
	Topic        Topic     `json:"topic"`
	ID           string    `json:"id,omitempty"`
	AcademicYear string    `json:"academicYear,omitempty"`
	At           time.Time `json:"at"`
}

// Feed publishes change events and fans them out to subscribers.
//
// Delivery is a signal, not a log: a slow subscriber may miss intermediate
// events but always receives at least one event after its last read when
// anything changed, which is enough for re-query based live views.
type Feed interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(topics ...Topic) (<-chan Event, func())
	Close() error
}

type listener struct {
	ch     chan Event
	topics map[Topic]bool
}

// MemoryFeed dispatches events to listeners of the same process
type MemoryFeed struct {
	mu        sync.RWMutex
	listeners map[*listener]struct{}
	closed    bool
	logger    zerolog.Logger
}

// NewMemoryFeed creates an in-process feed
func NewMemoryFeed(logger zerolog.Logger) *MemoryFeed {
	return &MemoryFeed{
		listeners: make(map[*listener]struct{}),
		logger:    logger,
	}
}

// Publish delivers ev to every listener subscribed to its topic
func (f *MemoryFeed) Publish(_ context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	f.dispatch(ev)
	return nil
}

func (f *MemoryFeed) dispatch(ev Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for l := range f.listeners {
		if len(l.topics) > 0 && !l.topics[ev.Topic] {
			continue
		}
		select {
		case l.ch <- ev:
		default:
			// A signal is already queued for this listener.
			f.logger.Debug().Str("topic", string(ev.Topic)).Msg("Coalesced change event for busy listener")
		}
	}
}

// Subscribe registers a listener for the given topics, or all topics when none are given.
// The returned cancel func unregisters the listener and closes its channel; it is safe to call more than once.
func (f *MemoryFeed) Subscribe(topics ...Topic) (<-chan Event, func()) {
	l := &listener{ch: make(chan Event, 1), topics: make(map[Topic]bool, len(topics))}
	for _, t := range topics {
		l.topics[t] = true
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(l.ch)
		return l.ch, func() {}
	}
	f.listeners[l] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if _, ok := f.listeners[l]; ok {
				delete(f.listeners, l)
				close(l.ch)
			}
		})
	}
	return l.ch, cancel
}

// ListenerCount returns the number of active subscriptions
func (f *MemoryFeed) ListenerCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.listeners)
}

// Close unregisters every listener
func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for l := range f.listeners {
		delete(f.listeners, l)
		close(l.ch)
	}
	f.closed = true
	return nil
}
