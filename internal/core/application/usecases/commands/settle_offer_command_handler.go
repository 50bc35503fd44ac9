package commands

import (
	"context"

	"dispatch/internal/pkg/errs"

	"github.com/jonboulle/clockwork"
)

// ErrOfferHasExpired is returned when a courier answers after the acceptance window.
var ErrOfferHasExpired = errs.NewValueIsInvalidError("offer has expired")

// SettleOfferCommandHandler writes courier answers to the assignment record store.
type SettleOfferCommandHandler struct {
	uowFactory OfferUoWFactory
	clock      clockwork.Clock
}

// NewSettleOfferCommandHandler creates the handler. The clock decides whether an
// offer is still open.
func NewSettleOfferCommandHandler(uowFactory OfferUoWFactory, clock clockwork.Clock) SettleOfferCommandHandler {
	return SettleOfferCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// Handle records the answer on the offer.
//
// Returns:
//   - nil on success
//   - errs.ErrObjectNotFound when the offer does not exist (revoked or never made)
//   - ErrOfferHasExpired when the acceptance window has closed
//   - offer.ErrOfferIsNotPending when the offer was already answered
func (h *SettleOfferCommandHandler) Handle(ctx context.Context, cmd SettleOfferCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	offerRepo := uow.OfferRepository()
	answered, err := offerRepo.GetForUpdate(ctx, cmd.CourierID(), cmd.OrderID())
	if err != nil {
		return err
	}

	if answered.IsPending() && answered.IsExpired(h.clock.Now()) {
		return ErrOfferHasExpired
	}

	if cmd.Accept() {
		err = answered.Accept()
	} else {
		err = answered.Reject()
	}
	if err != nil {
		return err
	}

	if err = offerRepo.Update(ctx, answered); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
