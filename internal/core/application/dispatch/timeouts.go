package dispatch

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

func (c *Coordinator) armAcceptance(orderID, courierID kernel.UUID, expiresAt time.Time, d time.Duration) {
	c.state.arm(c.clock, orderID, purposeAcceptance, expiresAt, d, func() {
		c.expireOffer(c.ctx, orderID, courierID, expiresAt)
	})
}

// HandleAcceptanceTimeout revokes the offer made to courierID for orderID when the
// courier did not accept it in time.
//
// Behavior:
//   - A missing offer, or one the courier accepted, is left alone
//   - Otherwise the offer is deleted and, in the same transaction, the order reverts to
//     seeking_courier if and only if it is still assigned to courierID
//   - After a revert a retry excluding courierID is scheduled immediately; the order
//     cools down until it fires
//
// The acceptance timer handle and the cached expiry of the offer are always dropped.
func (c *Coordinator) HandleAcceptanceTimeout(ctx context.Context, orderID, courierID kernel.UUID) {
	c.expireOffer(ctx, orderID, courierID, time.Time{})
}

func (c *Coordinator) expireOffer(ctx context.Context, orderID, courierID kernel.UUID, armedFor time.Time) {
	logger := c.logger.With("order_id", orderID.String(), "courier_id", courierID.String())

	generation := armedFor
	defer func() {
		c.state.clearOffer(orderID, generation)
	}()

	stale, err := c.uowFactory.Create().OfferRepository().Get(ctx, courierID, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		logger.DebugContext(ctx, "Offer already gone at timeout")
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read offer at timeout", "error", err)
		return
	}
	generation = stale.ExpiresAt()

	if stale.IsAccepted() {
		logger.DebugContext(ctx, "Offer accepted before timeout")
		return
	}

	// The revert notifies the order feed; the cooldown holds that event off until
	// the retry excluding courierID is armed.
	c.state.addCooldown(orderID)
	retrying := false
	defer func() {
		if !retrying {
			c.state.removeCooldown(orderID)
		}
	}()

	reverted, err := c.revokeOffer(ctx, orderID, courierID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to revoke timed out offer", "error", err)
		return
	}
	if !reverted {
		logger.InfoContext(ctx, "Offer revoked, order had already moved on")
		return
	}

	retrying = true
	logger.InfoContext(ctx, "Offer timed out, reassigning")
	c.scheduleRetry(orderID, 0, &courierID)
}

// revokeOffer deletes the offer and reverts the order from assigned(courierID) to
// seeking_courier. It reports whether the order was reverted.
func (c *Coordinator) revokeOffer(ctx context.Context, orderID, courierID kernel.UUID) (bool, error) {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.OfferRepository().Delete(ctx, courierID, orderID); err != nil {
		return false, err
	}

	reverted, err := revertAssignment(ctx, uow.OrderRepository(), orderID, courierID)
	if err != nil {
		return false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return false, err
	}
	return reverted, nil
}

// revertAssignment moves an order assigned to courierID back to seeking_courier.
// Any other status, or a different courier, leaves the order untouched.
func revertAssignment(ctx context.Context, orders ports.OrderRepository, orderID, courierID kernel.UUID) (bool, error) {
	current, err := orders.GetForUpdate(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !current.IsAssignedTo(courierID) {
		return false, nil
	}
	if err = current.SeekCourier(); err != nil {
		return false, err
	}
	if err = orders.Update(ctx, current); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Coordinator) armSeeking(orderID kernel.UUID) {
	c.state.arm(c.clock, orderID, purposeSeeking, time.Time{}, c.settings.SeekingWindow, func() {
		c.expireSeeking(c.ctx, orderID)
	})
}

// expireSeeking gives up on an order whose seeking window closed. A seeking order is
// rejected; an order still waiting on an offer has the offer withdrawn first.
// Every piece of ephemeral state of the order is purged afterwards.
func (c *Coordinator) expireSeeking(ctx context.Context, orderID kernel.UUID) {
	logger := c.logger.With("order_id", orderID.String())
	defer c.state.purge(orderID)

	rejected, err := c.rejectOrder(ctx, orderID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to reject order after seeking window", "error", err)
		return
	}
	if rejected {
		logger.InfoContext(ctx, "No courier accepted within the seeking window, order rejected")
	}
}

func (c *Coordinator) rejectOrder(ctx context.Context, orderID kernel.UUID) (bool, error) {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders := uow.OrderRepository()
	current, err := orders.GetForUpdate(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if current.Status() == order.Assigned {
		if err = uow.OfferRepository().Delete(ctx, *current.Courier(), orderID); err != nil {
			return false, err
		}
		if err = current.SeekCourier(); err != nil {
			return false, err
		}
	}
	if current.Status() != order.SeekingCourier {
		return false, nil
	}

	if err = current.Reject(); err != nil {
		return false, err
	}
	if err = orders.Update(ctx, current); err != nil {
		return false, err
	}
	if err = uow.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// scheduleRetry is the single retry primitive used after a timeout, after a rejection
// and by pending scans. It re-arms the order's retry timer; on fire the cooldown is
// lifted and TryAssign runs with the given exclusion, unless the order stopped
// being pending in the meantime.
func (c *Coordinator) scheduleRetry(orderID kernel.UUID, delay time.Duration, exclude *kernel.UUID) {
	var excluded *kernel.UUID
	if exclude != nil {
		id := *exclude
		excluded = &id
	}

	c.state.arm(c.clock, orderID, purposeRetry, time.Time{}, delay, func() {
		c.state.removeCooldown(orderID)
		if !c.state.isPending(orderID) {
			c.logger.DebugContext(c.ctx, "Retry dropped, order is not pending", "order_id", orderID.String())
			return
		}
		c.TryAssign(c.ctx, orderID, excluded)
	})
}
