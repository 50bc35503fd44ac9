package dispatch

import (
	"context"
	"errors"
	"sync"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// Feeds groups the change feeds the coordinator reacts to.
type Feeds struct {
	Orders   ports.OrderFeed
	Couriers ports.CourierFeed
	Offers   ports.OfferFeed
}

// Watch subscribes to the three feeds and hands every event to the matching handler,
// one event at a time per feed, until ctx is cancelled. Subscriptions are closed on return.
//
// Returns:
//   - error: a subscription error, or ctx.Err() once the context is cancelled
func (c *Coordinator) Watch(ctx context.Context, feeds Feeds) error {
	if feeds.Orders == nil || feeds.Couriers == nil || feeds.Offers == nil {
		return errs.NewValueIsRequiredError("feeds")
	}

	orders, err := feeds.Orders.SubscribeOrders(ctx)
	if err != nil {
		return err
	}
	couriers, err := feeds.Couriers.SubscribeCouriers(ctx)
	if err != nil {
		return errors.Join(err, orders.Close())
	}
	offers, err := feeds.Offers.SubscribeOffers(ctx)
	if err != nil {
		return errors.Join(err, orders.Close(), couriers.Close())
	}

	c.logger.InfoContext(ctx, "Watching order, courier and offer feeds")

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		consume(ctx, c, "orders", orders, func(ch ports.OrderChange) {
			c.OnOrderSeeking(ctx, ch.Order)
		})
	}()
	go func() {
		defer wg.Done()
		consume(ctx, c, "couriers", couriers, func(ch ports.CourierChange) {
			c.OnCourierAvailable(ctx, ch.CourierID)
		})
	}()
	go func() {
		defer wg.Done()
		consume(ctx, c, "offers", offers, func(ch ports.OfferChange) {
			c.OnOfferSettled(ctx, ch.Offer)
		})
	}()
	wg.Wait()

	return ctx.Err()
}

func consume[T any](ctx context.Context, c *Coordinator, name string, sub ports.Subscription[T], handle func(T)) {
	defer func() {
		if err := sub.Close(); err != nil {
			c.logger.WarnContext(ctx, "Failed to close subscription", "feed", name, "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				if ctx.Err() == nil {
					c.logger.ErrorContext(ctx, "Feed closed unexpectedly", "feed", name)
				}
				return
			}
			handle(event)
		}
	}
}
