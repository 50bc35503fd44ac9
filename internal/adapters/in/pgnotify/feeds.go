// Package pgnotify turns PostgreSQL LISTEN/NOTIFY channels into the change feeds
// the dispatch coordinator subscribes to.
//
// Every subscription owns one pq.Listener. It first emits a snapshot of the rows
// that currently match the feed (orders seeking a courier, available couriers,
// answered but unsettled offers), then one event per notification. After the
// listener reconnects, notifications may have been lost, so the snapshot is emitted
// again.
package pgnotify

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
)

const (
	minReconnectInterval = 10 * time.Millisecond
	maxReconnectInterval = time.Minute
	defaultPingInterval  = 90 * time.Second
)

// listener is the part of *pq.Listener a subscription uses.
type listener interface {
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Feeds implements ports.OrderFeed, ports.CourierFeed and ports.OfferFeed.
type Feeds struct {
	uowFactory   ports.UnitOfWorkFactory
	connect      func(channel string) (listener, error)
	clock        clockwork.Clock
	pingInterval time.Duration
	logger       *slog.Logger
}

// NewFeeds creates feeds listening on the database behind dsn. Rows are loaded
// through uowFactory, outside of any transaction.
//
// Example:
//
//	feeds := pgnotify.NewFeeds(cfg.DSN(), uowFactory, clockwork.NewRealClock(), logger)
//	err := coordinator.Watch(ctx, dispatch.Feeds{Orders: feeds, Couriers: feeds, Offers: feeds})
func NewFeeds(dsn string, uowFactory ports.UnitOfWorkFactory, clock clockwork.Clock, logger *slog.Logger) *Feeds {
	logger = logger.With("component", "pgnotify")

	return &Feeds{
		uowFactory: uowFactory,
		connect: func(channel string) (listener, error) {
			l := pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval,
				func(ev pq.ListenerEventType, err error) {
					if err != nil {
						logger.Warn("Listener connection event", "channel", channel, "event", int(ev), "error", err)
					}
				})
			if err := l.Listen(channel); err != nil {
				_ = l.Close()
				return nil, err
			}
			return l, nil
		},
		clock:        clock,
		pingInterval: defaultPingInterval,
		logger:       logger,
	}
}

// SubscribeOrders streams orders that entered seeking_courier.
func (f *Feeds) SubscribeOrders(ctx context.Context) (ports.Subscription[ports.OrderChange], error) {
	return subscribe(ctx, f, source[ports.OrderChange]{
		channel: postgres.OrdersChannel,
		snapshot: func(ctx context.Context) ([]ports.OrderChange, error) {
			orders, err := f.uowFactory.Create().OrderRepository().GetAllInStatus(ctx, order.SeekingCourier)
			if err != nil {
				return nil, err
			}
			changes := make([]ports.OrderChange, 0, len(orders))
			for _, o := range orders {
				changes = append(changes, ports.OrderChange{Kind: ports.ChangeSnapshot, Order: o})
			}
			return changes, nil
		},
		load: func(ctx context.Context, payload string) (ports.OrderChange, bool, error) {
			id, err := kernel.UUIDFromString(payload)
			if err != nil {
				return ports.OrderChange{}, false, err
			}
			o, err := f.uowFactory.Create().OrderRepository().Get(ctx, id)
			if err != nil {
				return ports.OrderChange{}, false, err
			}
			if o.Status() != order.SeekingCourier {
				return ports.OrderChange{}, false, nil
			}
			return ports.OrderChange{Kind: ports.ChangeModified, Order: o}, true, nil
		},
	})
}

// SubscribeCouriers streams couriers that became available.
func (f *Feeds) SubscribeCouriers(ctx context.Context) (ports.Subscription[ports.CourierChange], error) {
	return subscribe(ctx, f, source[ports.CourierChange]{
		channel: postgres.CouriersChannel,
		snapshot: func(ctx context.Context) ([]ports.CourierChange, error) {
			couriers, err := f.uowFactory.Create().CourierRepository().GetAllAvailable(ctx, false)
			if err != nil {
				return nil, err
			}
			changes := make([]ports.CourierChange, 0, len(couriers))
			for _, c := range couriers {
				changes = append(changes, ports.CourierChange{Kind: ports.ChangeSnapshot, CourierID: c.ID()})
			}
			return changes, nil
		},
		load: func(_ context.Context, payload string) (ports.CourierChange, bool, error) {
			id, err := kernel.UUIDFromString(payload)
			if err != nil {
				return ports.CourierChange{}, false, err
			}
			return ports.CourierChange{Kind: ports.ChangeModified, CourierID: id}, true, nil
		},
	})
}

// SubscribeOffers streams offers the courier answered and dispatch has not settled.
func (f *Feeds) SubscribeOffers(ctx context.Context) (ports.Subscription[ports.OfferChange], error) {
	return subscribe(ctx, f, source[ports.OfferChange]{
		channel: postgres.OffersChannel,
		snapshot: func(ctx context.Context) ([]ports.OfferChange, error) {
			offers, err := f.uowFactory.Create().OfferRepository().GetUnprocessedSettlements(ctx)
			if err != nil {
				return nil, err
			}
			changes := make([]ports.OfferChange, 0, len(offers))
			for _, of := range offers {
				changes = append(changes, ports.OfferChange{Kind: ports.ChangeSnapshot, Offer: of})
			}
			return changes, nil
		},
		load: func(ctx context.Context, payload string) (ports.OfferChange, bool, error) {
			courierID, orderID, err := parseOfferKey(payload)
			if err != nil {
				return ports.OfferChange{}, false, err
			}
			of, err := f.uowFactory.Create().OfferRepository().Get(ctx, courierID, orderID)
			if err != nil {
				return ports.OfferChange{}, false, err
			}
			if of.IsPending() || of.IsSettled() {
				return ports.OfferChange{}, false, nil
			}
			return ports.OfferChange{Kind: ports.ChangeModified, Offer: of}, true, nil
		},
	})
}
