package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolrecords/internal/pkg/changefeed"
	"github.com/yigit/schoolrecords/internal/pkg/metrics"
)

// liveQuery describes a result set that is re-read whenever one of its topics changes
type liveQuery[T any] struct {
	topics []changefeed.Topic
	match  func(changefeed.Event) bool // nil matches every event
	load   func(ctx context.Context) (T, error)
	logger zerolog.Logger
}

// watch loads q once, returns the result on the channel and reloads it after each
// matching change. The initial load error is returned to the caller; later reload
// errors are logged and the previous value stays current.
//
// The subscription ends when cancel is called or ctx is done. The channel is
// closed afterwards.
func watch[T any](ctx context.Context, feed changefeed.Feed, q liveQuery[T]) (<-chan T, func(), error) {
	events, unsubscribe := feed.Subscribe(q.topics...)

	initial, err := q.load(ctx)
	if err != nil {
		unsubscribe()
		return nil, nil, err
	}

	out := make(chan T, 1)
	out <- initial

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			unsubscribe()
		})
	}

	metrics.SubscriptionOpened()
	go func() {
		defer close(out)
		defer metrics.SubscriptionClosed()
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if q.match != nil && !q.match(ev) {
					continue
				}

				value, err := q.load(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					q.logger.Error().Err(err).Str("topic", string(ev.Topic)).Msg("Failed to reload live query")
					continue
				}

				// Drop a value the consumer has not read yet; only the latest matters.
				select {
				case <-out:
				default:
				}
				select {
				case out <- value:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	return out, cancel, nil
}
