package dispatch

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

// RecoveryReport counts what one recovery sweep repaired.
type RecoveryReport struct {
	// Expired is the number of overdue offers sent through HandleAcceptanceTimeout.
	Expired int
	// Adopted is the number of live offers that got their acceptance timer back.
	Adopted int
	// Reverted is the number of assigned orders without an offer moved back to seeking.
	Reverted int
	// Replayed is the number of answered offers handed to OnOfferSettled.
	Replayed int
}

// IsZero reports whether the sweep found nothing to repair.
func (r RecoveryReport) IsZero() bool {
	return r == RecoveryReport{}
}

// Recover repairs the state a lost timer or a missed notification leaves behind,
// typically after a restart.
//
// Behavior:
//   - Unanswered offers past their expiry, with no acceptance timer armed, time out now
//   - Unanswered offers still running, with no acceptance timer armed, get one for the
//     time they have left
//   - Assigned orders without an unsettled offer of their courier revert to
//     seeking_courier and are handed to OnOrderSeeking
//   - Answered offers nobody settled are replayed through OnOfferSettled
//
// Orders locked by an attempt in flight are skipped. Failures are logged; the next
// sweep picks the remainder up.
func (c *Coordinator) Recover(ctx context.Context) RecoveryReport {
	var report RecoveryReport
	report.Expired = c.expireOrphanedOffers(ctx)
	report.Adopted, report.Reverted = c.recoverAssignments(ctx)
	report.Replayed = c.replaySettlements(ctx)

	if !report.IsZero() {
		c.logger.InfoContext(ctx, "Recovery sweep repaired dispatch state",
			"expired", report.Expired,
			"adopted", report.Adopted,
			"reverted", report.Reverted,
			"replayed", report.Replayed,
		)
	}
	return report
}

func (c *Coordinator) expireOrphanedOffers(ctx context.Context) int {
	overdue, err := c.uowFactory.Create().OfferRepository().GetExpiredUnsettled(ctx, c.clock.Now())
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to list expired offers", "error", err)
		return 0
	}

	expired := 0
	for _, stale := range overdue {
		orderID := stale.OrderID()
		if c.HasAcceptanceTimer(orderID) || c.state.isLocked(orderID) {
			continue
		}
		c.HandleAcceptanceTimeout(ctx, orderID, stale.CourierID())
		c.resume(ctx, orderID)
		expired++
	}
	return expired
}

func (c *Coordinator) recoverAssignments(ctx context.Context) (adopted, reverted int) {
	uow := c.uowFactory.Create()
	assigned, err := uow.OrderRepository().GetAllInStatus(ctx, order.Assigned)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to list assigned orders", "error", err)
		return 0, 0
	}

	now := c.clock.Now()
	for _, o := range assigned {
		orderID := o.ID()
		courierID := o.Courier()
		if courierID == nil || c.state.isLocked(orderID) {
			continue
		}
		logger := c.logger.With("order_id", orderID.String(), "courier_id", courierID.String())

		live, err := uow.OfferRepository().Get(ctx, *courierID, orderID)
		switch {
		case errors.Is(err, errs.ErrObjectNotFound):
		case err != nil:
			logger.ErrorContext(ctx, "Failed to read offer of assigned order", "error", err)
			continue
		case live.IsSettled():
		case !live.IsPending():
			// Answered and waiting for settlement.
			continue
		case live.IsExpired(now):
			// Left to the next sweep's expiry pass.
			continue
		default:
			if !c.HasAcceptanceTimer(orderID) {
				c.state.setRemaining(orderID, live.ExpiresAt())
				c.armAcceptance(orderID, *courierID, live.ExpiresAt(), live.ExpiresAt().Sub(now))
				logger.InfoContext(ctx, "Acceptance timer restored")
				adopted++
			}
			continue
		}

		if c.revertOrphan(ctx, orderID, *courierID) {
			reverted++
		}
	}
	return adopted, reverted
}

// revertOrphan moves an assigned order without a live offer back to seeking_courier
// and retries it, excluding the courier it was assigned to when the order is pending.
func (c *Coordinator) revertOrphan(ctx context.Context, orderID, courierID kernel.UUID) bool {
	logger := c.logger.With("order_id", orderID.String(), "courier_id", courierID.String())

	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to begin recovery", "error", err)
		return false
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	reverted, err := revertAssignment(ctx, uow.OrderRepository(), orderID, courierID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to revert orphaned assignment", "error", err)
		return false
	}
	if !reverted {
		return false
	}
	if err = uow.Commit(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to commit recovery", "error", err)
		return false
	}

	logger.WarnContext(ctx, "Assigned order had no live offer, seeking again")

	if c.state.isPending(orderID) {
		c.scheduleRetry(orderID, 0, &courierID)
		return true
	}
	c.resume(ctx, orderID)
	return true
}

// resume hands a seeking order the coordinator does not track to OnOrderSeeking.
func (c *Coordinator) resume(ctx context.Context, orderID kernel.UUID) {
	if c.state.isPending(orderID) {
		return
	}

	current, err := c.uowFactory.Create().OrderRepository().Get(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to re-read recovered order",
			"order_id", orderID.String(), "error", err)
		return
	}
	if current.Status() == order.SeekingCourier {
		c.OnOrderSeeking(ctx, current)
	}
}

func (c *Coordinator) replaySettlements(ctx context.Context) int {
	answered, err := c.uowFactory.Create().OfferRepository().GetUnprocessedSettlements(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to list unsettled answers", "error", err)
		return 0
	}

	for _, of := range answered {
		c.OnOfferSettled(ctx, of)
	}
	return len(answered)
}
