package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const listenerPing = 90 * time.Second

// Listen subscribes to the enqueue NOTIFY channel. The returned channel
// receives a coalesced signal per burst of notifications and stops
// firing once ctx is done.
func Listen(ctx context.Context, dsn, channel string, logger *slog.Logger) (<-chan struct{}, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	l := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("queue listener event", "event", int(ev), "error", err)
		}
	})
	if err := l.Listen(channel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}

	wake := make(chan struct{}, 1)
	go func() {
		defer l.Close()
		ping := time.NewTicker(listenerPing)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.Notify:
				// nil notifications arrive after a reconnect; wake anyway
				// since messages may have been enqueued while disconnected
				signal(wake)
			case <-ping.C:
				go func() { _ = l.Ping() }()
			}
		}
	}()
	return wake, nil
}

func signal(wake chan struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}
