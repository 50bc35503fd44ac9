package dispatch

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// OnOrderSeeking reacts to an order entering seeking_courier.
//
// The first event for an order registers it as pending, caches the global expiry
// and arms the seeking-window timer. Later events for a pending order only refresh
// its payload and path; the seeking window keeps running from the first event.
// An assignment attempt follows unless one is in flight or a retry is already
// scheduled for the order.
func (c *Coordinator) OnOrderSeeking(ctx context.Context, o *order.Order) {
	if err := o.Validate(); err != nil {
		c.logger.ErrorContext(ctx, "Ignoring invalid order event", "error", err)
		return
	}
	if o.Status() != order.SeekingCourier {
		return
	}

	orderID := o.ID()
	now := c.clock.Now()
	fresh := c.state.register(orderID, pendingOrder{
		payload: o.Payload(),
		path:    o.Path(),
		since:   now,
	})
	if fresh {
		c.state.setRemaining(orderID, now.Add(c.settings.SeekingWindow))
		c.armSeeking(orderID)
		c.logger.InfoContext(ctx, "Order is seeking a courier",
			"order_id", orderID.String(), "path", o.Path())
	}

	if c.state.isLocked(orderID) || c.state.hasTimer(orderID, purposeRetry) {
		return
	}
	c.TryAssign(ctx, orderID, nil)
}

// OnCourierAvailable reacts to a courier becoming available. Events are coalesced:
// the first one arms a scan after Settings.AvailabilityDebounce and the ones arriving
// before it runs are absorbed by it.
func (c *Coordinator) OnCourierAvailable(ctx context.Context, courierID kernel.UUID) {
	armed := c.state.debounce(c.clock, c.settings.AvailabilityDebounce, func() {
		c.scanAfterAvailability(c.ctx)
	})
	if armed {
		c.logger.DebugContext(ctx, "Courier available, scan scheduled", "courier_id", courierID.String())
	}
}

func (c *Coordinator) scanAfterAvailability(ctx context.Context) {
	if c.settings.AvailabilityScan == ScanOpportunistic {
		c.logger.DebugContext(ctx, "Courier availability left to the next natural attempt")
		return
	}
	c.RescanPending(ctx)
}

// RescanPending retries every pending order that is neither locked, cooling down nor
// already waiting for a retry. The persisted status is re-read first: seeking orders
// get a retry, finished or vanished ones are forgotten.
//
// Returns:
//   - int: Number of retries scheduled
func (c *Coordinator) RescanPending(ctx context.Context) int {
	scheduled := 0
	orders := c.uowFactory.Create().OrderRepository()

	for _, orderID := range c.state.pendingIDs() {
		if c.state.inCooldown(orderID) || c.state.isLocked(orderID) || c.state.hasTimer(orderID, purposeRetry) {
			continue
		}

		current, err := orders.Get(ctx, orderID)
		if errors.Is(err, errs.ErrObjectNotFound) {
			c.state.purge(orderID)
			continue
		}
		if err != nil {
			c.logger.ErrorContext(ctx, "Failed to re-read pending order",
				"order_id", orderID.String(), "error", err)
			continue
		}

		switch {
		case current.Status() == order.SeekingCourier:
			c.scheduleRetry(orderID, 0, nil)
			scheduled++
		case current.Status().IsTerminal():
			c.state.purge(orderID)
		}
	}

	if scheduled > 0 {
		c.logger.InfoContext(ctx, "Pending orders rescanned", "retries", scheduled)
	}
	return scheduled
}

// OnOfferSettled reacts to a courier answering an offer. Each answer is processed
// exactly once: the offer is re-read under a row lock and skipped when it is gone or
// already settled.
//
// An acceptance purges the order's ephemeral state, moves the order to preparing
// and marks the offer settled. A rejection puts the order into cooldown, deletes the
// offer, counts the rejection on the courier, reverts the order to seeking_courier
// and schedules a retry excluding the courier after Settings.RejectionCooldown.
func (c *Coordinator) OnOfferSettled(ctx context.Context, answered *offer.Offer) {
	if err := answered.Validate(); err != nil {
		c.logger.ErrorContext(ctx, "Ignoring invalid offer event", "error", err)
		return
	}

	switch {
	case answered.IsAccepted():
		c.settleAcceptance(ctx, answered.OrderID(), answered.CourierID())
	case answered.IsRejected():
		c.settleRejection(ctx, answered.OrderID(), answered.CourierID(), answered.ExpiresAt())
	}
}

func (c *Coordinator) settleAcceptance(ctx context.Context, orderID, courierID kernel.UUID) {
	logger := c.logger.With("order_id", orderID.String(), "courier_id", courierID.String())
	c.state.purge(orderID)

	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to begin settlement", "error", err)
		return
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	offers := uow.OfferRepository()
	orders := uow.OrderRepository()

	current, err := offers.GetForUpdate(ctx, courierID, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		logger.InfoContext(ctx, "Accepted offer no longer exists")
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read accepted offer", "error", err)
		return
	}
	if current.IsSettled() || !current.IsAccepted() {
		return
	}

	accepted, err := orders.GetForUpdate(ctx, orderID)
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		logger.WarnContext(ctx, "Accepted order no longer exists")
	case err != nil:
		logger.ErrorContext(ctx, "Failed to read accepted order", "error", err)
		return
	default:
		if acceptErr := accepted.Accept(courierID, c.clock.Now()); acceptErr != nil {
			logger.WarnContext(ctx, "Order cannot be accepted anymore",
				"status", accepted.Status().String(), "error", acceptErr)
			break
		}
		if err = orders.Update(ctx, accepted); err != nil {
			logger.ErrorContext(ctx, "Failed to move order to preparing", "error", err)
			return
		}
	}

	if err = current.MarkSettled(); err != nil {
		logger.ErrorContext(ctx, "Failed to settle offer", "error", err)
		return
	}
	if err = offers.Update(ctx, current); err != nil {
		logger.ErrorContext(ctx, "Failed to settle offer", "error", err)
		return
	}
	if err = uow.Commit(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to commit acceptance", "error", err)
		return
	}

	logger.InfoContext(ctx, "Offer accepted, order is being prepared")
}

func (c *Coordinator) settleRejection(ctx context.Context, orderID, courierID kernel.UUID, expiresAt time.Time) {
	logger := c.logger.With("order_id", orderID.String(), "courier_id", courierID.String())
	c.state.clearOffer(orderID, expiresAt)

	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to begin settlement", "error", err)
		return
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	offers := uow.OfferRepository()

	current, err := offers.GetForUpdate(ctx, courierID, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		logger.InfoContext(ctx, "Rejected offer no longer exists")
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read rejected offer", "error", err)
		return
	}
	if current.IsSettled() || !current.IsRejected() {
		return
	}

	c.state.addCooldown(orderID)
	retrying := false
	defer func() {
		if !retrying {
			c.state.removeCooldown(orderID)
		}
	}()

	if err = offers.Delete(ctx, courierID, orderID); err != nil {
		logger.ErrorContext(ctx, "Failed to delete rejected offer", "error", err)
		return
	}

	if err = countRejection(ctx, uow.CourierRepository(), courierID); err != nil {
		logger.ErrorContext(ctx, "Failed to count rejection", "error", err)
		return
	}

	orders := uow.OrderRepository()
	if _, err = revertAssignment(ctx, orders, orderID, courierID); err != nil {
		logger.ErrorContext(ctx, "Failed to revert rejected order", "error", err)
		return
	}

	if err = uow.Commit(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to commit rejection", "error", err)
		return
	}

	latest, err := c.uowFactory.Create().OrderRepository().Get(ctx, orderID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to re-read rejected order", "error", err)
		return
	}
	if latest.Status() != order.SeekingCourier {
		logger.InfoContext(ctx, "Offer rejected, order had already moved on", "status", latest.Status().String())
		return
	}

	retrying = true
	c.scheduleRetry(orderID, c.settings.RejectionCooldown, &courierID)
	logger.InfoContext(ctx, "Offer rejected, reassigning after cooldown", "cooldown", c.settings.RejectionCooldown)
}

func countRejection(ctx context.Context, couriers ports.CourierRepository, courierID kernel.UUID) error {
	rejecting, err := couriers.Get(ctx, courierID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	rejecting.RegisterRejection()
	return couriers.Update(ctx, rejecting)
}
