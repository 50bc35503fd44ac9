package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrSettleOfferCommandIsNotConstructed = errors.New(
	"SettleOfferCommand must be created via NewSettleOfferCommand constructor",
)

// SettleOfferCommand records a courier's answer to an offer. Only the answer is
// written here; the offer feed hands it to the coordinator, which settles it.
//
// Example:
//
//	cmd, err := NewSettleOfferCommand(courierID, orderID, true)
//	if err != nil {
//	    return err
//	}
//	err = handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrObjectNotFound):
//	    // the offer was revoked or never existed
//	case errors.Is(err, ErrOfferHasExpired):
//	    // the acceptance window closed
//	}
type SettleOfferCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	orderID   kernel.UUID
	accept    bool

	guard guard.ConstructorGuard
}

// NewSettleOfferCommand creates the command.
func NewSettleOfferCommand(courierID, orderID kernel.UUID, accept bool) (SettleOfferCommand, error) {
	if err := errors.Join(courierID.Validate(), orderID.Validate()); err != nil {
		return SettleOfferCommand{}, err
	}

	return SettleOfferCommand{
		courierID: courierID,
		orderID:   orderID,
		accept:    accept,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c SettleOfferCommand) Validate() error {
	return c.guard.Validate(ErrSettleOfferCommandIsNotConstructed)
}

// CourierID returns the answering courier.
func (c SettleOfferCommand) CourierID() kernel.UUID {
	return c.courierID
}

// OrderID returns the order the offer is for.
func (c SettleOfferCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Accept reports whether the courier accepts the offer.
func (c SettleOfferCommand) Accept() bool {
	return c.accept
}
