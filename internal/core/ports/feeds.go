package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
)

// ChangeKind tells whether a change event comes from the initial (or resync)
// snapshot of a feed or from a live modification.
type ChangeKind int

const (
	ChangeSnapshot ChangeKind = iota + 1
	ChangeModified
)

// Subscription is a cancellable, sequential stream of change events of one collection.
// Events is closed once the subscription ends, either through Close or because the
// context passed to Subscribe was cancelled.
type Subscription[T any] interface {
	Events() <-chan T
	Close() error
}

// OrderChange reports an order that entered seeking_courier.
type OrderChange struct {
	Kind  ChangeKind
	Order *order.Order
}

// CourierChange reports a courier that became available.
type CourierChange struct {
	Kind      ChangeKind
	CourierID kernel.UUID
}

// OfferChange reports an offer the courier answered and dispatch has not settled yet.
type OfferChange struct {
	Kind  ChangeKind
	Offer *offer.Offer
}

// OrderFeed is the order change feed.
type OrderFeed interface {
	SubscribeOrders(ctx context.Context) (Subscription[OrderChange], error)
}

// CourierFeed is the courier registry change feed.
type CourierFeed interface {
	SubscribeCouriers(ctx context.Context) (Subscription[CourierChange], error)
}

// OfferFeed is the assignment record store change feed.
type OfferFeed interface {
	SubscribeOffers(ctx context.Context) (Subscription[OfferChange], error)
}
