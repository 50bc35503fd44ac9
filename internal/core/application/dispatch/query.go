package dispatch

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/pkg/errs"
)

// RemainingTime answers how many whole seconds are left for an order: the offer's
// acceptance window while an offer is outstanding, otherwise the seeking window.
// The cache is consulted first; on a miss the live offer is looked up across all
// couriers and its expiry cached. An answered offer is not live.
//
// Returns:
//   - int: max(0, floor(expiresAt - now)) in seconds
//   - error: errs.ErrObjectNotFound when neither source knows the order or the
//     courier already answered
func (c *Coordinator) RemainingTime(ctx context.Context, orderID kernel.UUID) (int, error) {
	now := c.clock.Now()
	if expiresAt, ok := c.state.getRemaining(orderID); ok {
		return offer.RemainingSeconds(expiresAt, now), nil
	}

	live, err := c.uowFactory.Create().OfferRepository().FindByOrder(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return 0, errs.NewObjectNotFoundErrorWithCause("order", orderID.String(), err)
	}
	if err != nil {
		return 0, err
	}

	if !live.IsPending() {
		return 0, errs.NewObjectNotFoundError("offer", orderID.String())
	}

	c.state.setRemaining(orderID, live.ExpiresAt())
	return live.RemainingSeconds(now), nil
}

// Snapshot returns the pending, locked and cooling-down orders, the number of armed
// timers and the round-robin cursor. It is meant for diagnostics only.
func (c *Coordinator) Snapshot() Snapshot {
	snap := c.state.snapshot()
	snap.Cursor = c.selector.Cursor()
	return snap
}

// HasAcceptanceTimer reports whether an acceptance timer is armed for the order.
// The recovery sweep uses it to find offers nobody is watching.
func (c *Coordinator) HasAcceptanceTimer(orderID kernel.UUID) bool {
	return c.state.hasTimer(orderID, purposeAcceptance)
}
