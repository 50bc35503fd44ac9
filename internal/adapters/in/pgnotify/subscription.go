package pgnotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/jonboulle/clockwork"
)

// source describes one feed: where to listen, how to list the current matches and
// how to turn a notification payload into an event. load reports false for rows
// that no longer match by the time they are read.
type source[T any] struct {
	channel  string
	snapshot func(ctx context.Context) ([]T, error)
	load     func(ctx context.Context, payload string) (T, bool, error)
}

type subscription[T any] struct {
	events chan T
	cancel context.CancelFunc
	done   chan struct{}
}

func subscribe[T any](ctx context.Context, f *Feeds, src source[T]) (ports.Subscription[T], error) {
	l, err := f.connect(src.channel)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", src.channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription[T]{
		events: make(chan T),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.run(ctx, l, src, f.clock, f.pingInterval, f.logger.With("channel", src.channel))

	return sub, nil
}

func (s *subscription[T]) Events() <-chan T {
	return s.events
}

func (s *subscription[T]) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *subscription[T]) run(
	ctx context.Context,
	l listener,
	src source[T],
	clock clockwork.Clock,
	pingInterval time.Duration,
	logger *slog.Logger,
) {
	defer close(s.done)
	defer close(s.events)
	defer func() {
		if err := l.Close(); err != nil {
			logger.Warn("Failed to close listener", "error", err)
		}
	}()

	ticker := clock.NewTicker(pingInterval)
	defer ticker.Stop()

	// resync is set while a snapshot is owed; a failed snapshot is retried on the next tick.
	resync, alive := s.emitSnapshot(ctx, src, logger)
	if !alive {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case n, ok := <-l.NotificationChannel():
			if !ok {
				return
			}
			if n == nil {
				logger.InfoContext(ctx, "Listener reconnected, emitting snapshot")
				if resync, alive = s.emitSnapshot(ctx, src, logger); !alive {
					return
				}
				continue
			}

			event, relevant, err := src.load(ctx, n.Extra)
			if err != nil {
				if !errors.Is(err, errs.ErrObjectNotFound) {
					logger.ErrorContext(ctx, "Failed to load notified row", "payload", n.Extra, "error", err)
				}
				continue
			}
			if relevant && !s.send(ctx, event) {
				return
			}

		case <-ticker.Chan():
			if resync {
				if resync, alive = s.emitSnapshot(ctx, src, logger); !alive {
					return
				}
			}
			if err := l.Ping(); err != nil {
				logger.WarnContext(ctx, "Listener ping failed", "error", err)
			}
		}
	}
}

// emitSnapshot reports whether a snapshot is still owed and whether the subscription is alive.
func (s *subscription[T]) emitSnapshot(ctx context.Context, src source[T], logger *slog.Logger) (bool, bool) {
	events, err := src.snapshot(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read snapshot", "error", err)
		return true, ctx.Err() == nil
	}

	for _, event := range events {
		if !s.send(ctx, event) {
			return false, false
		}
	}
	return false, true
}

func (s *subscription[T]) send(ctx context.Context, event T) bool {
	select {
	case s.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// parseOfferKey splits the "<courier_id>:<order_id>" payload of the offers channel.
func parseOfferKey(payload string) (kernel.UUID, kernel.UUID, error) {
	courierPart, orderPart, found := strings.Cut(payload, ":")
	if !found {
		return kernel.UUID{}, kernel.UUID{}, errs.NewValueIsInvalidError("offer notification payload")
	}

	courierID, err := kernel.UUIDFromString(courierPart)
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	orderID, err := kernel.UUIDFromString(orderPart)
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	return courierID, orderID, nil
}
