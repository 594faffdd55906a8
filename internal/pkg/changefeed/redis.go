package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisFeed publishes events on a Redis pub/sub channel so every API instance
// sees changes committed by the others. Local delivery goes through a MemoryFeed.
type RedisFeed struct {
	client  *redis.Client
	channel string
	local   *MemoryFeed
	pubsub  *redis.PubSub
	done    chan struct{}
	logger  zerolog.Logger
}

// NewRedisFeed subscribes to channel and starts relaying its messages to local listeners
func NewRedisFeed(ctx context.Context, client *redis.Client, channel string, logger zerolog.Logger) (*RedisFeed, error) {
	if channel == "" {
		channel = "schoolrecords:changes"
	}
	pubsub := client.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so early publishes are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	f := &RedisFeed{
		client:  client,
		channel: channel,
		local:   NewMemoryFeed(logger),
		pubsub:  pubsub,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go f.relay()
	return f, nil
}

func (f *RedisFeed) relay() {
	defer close(f.done)
	for msg := range f.pubsub.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			f.logger.Warn().Err(err).Str("payload", msg.Payload).Msg("Dropping malformed change event")
			continue
		}
		f.local.dispatch(ev)
	}
}

// Publish sends ev to every instance, including this one
func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe registers a local listener
func (f *RedisFeed) Subscribe(topics ...Topic) (<-chan Event, func()) {
	return f.local.Subscribe(topics...)
}

// Close stops relaying and unregisters local listeners
func (f *RedisFeed) Close() error {
	err := f.pubsub.Close()
	<-f.done
	_ = f.local.Close()
	return err
}
