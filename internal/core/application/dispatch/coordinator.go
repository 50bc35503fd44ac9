package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/jonboulle/clockwork"
)

// ErrOrderNotSeeking is returned inside an assignment attempt when the order
// left seeking_courier between the status check and the offer write.
var ErrOrderNotSeeking = errors.New("order is no longer seeking a courier")

// Coordinator is the order dispatch coordinator. It owns the round-robin selector,
// the per-order assignment locks, the pending-order table, the timer table and the
// rejection cooldown set, and reacts to order, courier and offer change events.
//
// One Coordinator is constructed at startup and shared by every handler; its state
// is ephemeral and rebuilt from the change feeds after a restart.
//
// Example:
//
//	coordinator, err := dispatch.NewCoordinator(uowFactory, sender,
//	    services.NewRoundRobinSelector(), clockwork.NewRealClock(),
//	    dispatch.DefaultSettings(), logger)
//	if err != nil {
//	    return err
//	}
//	defer coordinator.Close()
//	go coordinator.Watch(ctx, feeds)
type Coordinator struct {
	uowFactory ports.UnitOfWorkFactory
	sender     ports.NotificationSender
	selector   *services.RoundRobinSelector
	clock      clockwork.Clock
	settings   Settings
	logger     *slog.Logger

	state *state

	// ctx is handed to timer callbacks; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCoordinator creates a coordinator with empty state.
//
// Parameters:
//   - uowFactory: Transaction boundary over orders, couriers and offers
//   - sender: Push notification sender
//   - selector: Round-robin courier selector holding the cursor
//   - clock: Time source for every timer
//   - settings: Windows, cooldown and eligibility rules (validated)
//   - logger: Base logger
//
// Returns:
//   - *Coordinator: The coordinator, ready to receive events
//   - error: Joined validation errors for invalid settings or missing collaborators
func NewCoordinator(
	uowFactory ports.UnitOfWorkFactory,
	sender ports.NotificationSender,
	selector *services.RoundRobinSelector,
	clock clockwork.Clock,
	settings Settings,
	logger *slog.Logger,
) (*Coordinator, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if sender == nil {
		return nil, errs.NewValueIsRequiredError("sender")
	}
	if selector == nil {
		return nil, errs.NewValueIsRequiredError("selector")
	}
	if clock == nil {
		return nil, errs.NewValueIsRequiredError("clock")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		uowFactory: uowFactory,
		sender:     sender,
		selector:   selector,
		clock:      clock,
		settings:   settings,
		logger:     logger.With("component", "dispatch_coordinator"),
		state:      newState(),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Close disarms every timer. Handlers already running finish on their own.
func (c *Coordinator) Close() {
	c.state.stopAll()
	c.cancel()
}

// Settings returns the settings the coordinator runs with.
func (c *Coordinator) Settings() Settings {
	return c.settings
}

// TryAssign makes one assignment attempt for an order: it selects the next courier,
// writes the offer together with the order's assigned status, caches the expiry,
// arms the acceptance timer and notifies the courier.
//
// Parameters:
//   - orderID: The order to assign
//   - exclude: Optional courier that just timed out or rejected; its stale offer is
//     deleted and it is skipped unless it is the only courier available
//
// Returns:
//   - bool: true when an offer was made
//
// The attempt returns false without side effects when another attempt holds the
// order's lock or the order is cooling down after a rejection. A pending order
// purged by its seeking window during the attempt is neither notified nor timed. When the order is
// no longer seeking a courier the attempt aborts, and ephemeral state is purged if
// the order is gone or finished. Failures are logged, never returned.
func (c *Coordinator) TryAssign(ctx context.Context, orderID kernel.UUID, exclude *kernel.UUID) bool {
	logger := c.logger.With("order_id", orderID.String())

	if c.state.inCooldown(orderID) {
		logger.DebugContext(ctx, "Assignment skipped, order is cooling down")
		return false
	}
	if !c.state.tryLock(orderID) {
		logger.DebugContext(ctx, "Assignment skipped, attempt already in flight")
		return false
	}
	defer c.state.unlock(orderID)
	tracked := c.state.isPending(orderID)

	uow := c.uowFactory.Create()

	current, err := uow.OrderRepository().Get(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		logger.InfoContext(ctx, "Order disappeared, forgetting it")
		c.state.purge(orderID)
		return false
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read order", "error", err)
		return false
	}
	if current.Status() != order.SeekingCourier {
		if current.Status().IsTerminal() {
			c.state.purge(orderID)
		}
		logger.DebugContext(ctx, "Assignment aborted, order is not seeking a courier",
			"status", current.Status().String())
		return false
	}

	if exclude != nil {
		if err = uow.OfferRepository().Delete(ctx, *exclude, orderID); err != nil {
			logger.WarnContext(ctx, "Failed to delete stale offer",
				"courier_id", exclude.String(), "error", err)
		}
	}

	couriers, err := uow.CourierRepository().GetAllAvailable(ctx, c.settings.RequireActiveCourier)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to query courier registry", "error", err)
		return false
	}

	chosen, err := c.selector.Select(couriers, exclude)
	if errors.Is(err, services.ErrCourierNotFound) {
		logger.InfoContext(ctx, "No courier available, order keeps seeking")
		return false
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to select courier", "error", err)
		return false
	}

	created, err := c.commitOffer(ctx, orderID, chosen.ID())
	if errors.Is(err, ErrOrderNotSeeking) {
		logger.InfoContext(ctx, "Order changed during assignment, offer dropped")
		return false
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to write offer", "courier_id", chosen.ID().String(), "error", err)
		return false
	}

	// The seeking window may have closed and purged the order while the offer committed.
	if tracked && !c.state.isPending(orderID) {
		logger.InfoContext(ctx, "Seeking window closed during assignment, offer withdrawn")
		return false
	}
	c.state.setRemaining(orderID, created.ExpiresAt())
	c.armAcceptance(orderID, chosen.ID(), created.ExpiresAt(), c.settings.AcceptanceWindow)
	if tracked && !c.state.isPending(orderID) {
		c.state.clearOffer(orderID, created.ExpiresAt())
		logger.InfoContext(ctx, "Seeking window closed during assignment, offer withdrawn")
		return false
	}
	c.notify(ctx, chosen, created)

	logger.InfoContext(ctx, "Offer made",
		"courier_id", chosen.ID().String(),
		"expires_at", created.ExpiresAt())
	return true
}

// commitOffer writes the offer and moves the order to assigned in one transaction.
// A pending offer left behind for the order is superseded by the new one.
func (c *Coordinator) commitOffer(ctx context.Context, orderID, courierID kernel.UUID) (*offer.Offer, error) {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders := uow.OrderRepository()
	offers := uow.OfferRepository()

	current, err := orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status() != order.SeekingCourier {
		return nil, ErrOrderNotSeeking
	}

	previous, err := offers.FindByOrder(ctx, orderID)
	switch {
	case err == nil && previous.IsPending():
		if err = offers.Delete(ctx, previous.CourierID(), orderID); err != nil {
			return nil, err
		}
	case err != nil && !errors.Is(err, errs.ErrObjectNotFound):
		return nil, err
	}

	created, err := offer.NewOffer(current, courierID, c.clock.Now(), c.settings.AcceptanceWindow)
	if err != nil {
		return nil, err
	}
	if err = current.Assign(courierID); err != nil {
		return nil, err
	}

	if err = offers.Add(ctx, created); err != nil {
		return nil, err
	}
	if err = orders.Update(ctx, current); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// notify sends the offer to the courier's device. Failures are logged only.
func (c *Coordinator) notify(ctx context.Context, to *courier.Courier, made *offer.Offer) {
	logger := c.logger.With("order_id", made.OrderID().String(), "courier_id", to.ID().String())
	if !to.HasPushToken() {
		logger.WarnContext(ctx, "Courier has no push token, notification skipped")
		return
	}

	if err := c.sender.Send(ctx, offerNotification(to, made)); err != nil {
		logger.WarnContext(ctx, "Failed to send offer notification", "error", err)
	}
}

func offerNotification(to *courier.Courier, made *offer.Offer) ports.Notification {
	payload := made.Payload()
	data := make(map[string]string, len(payload.Extra)+5)
	for k, v := range payload.Extra {
		data[k] = v
	}
	data["orderId"] = made.OrderID().String()
	data["orderPath"] = made.SourceOrderPath()
	data["customerName"] = payload.DisplayName()
	data["address"] = payload.Address
	data["expiresAt"] = made.ExpiresAt().UTC().Format(time.RFC3339)

	return ports.Notification{
		Token: to.FCMToken(),
		Title: "New order available",
		Body:  fmt.Sprintf("%s, %s", payload.DisplayName(), payload.Address),
		Data:  data,
	}
}
