package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrRequestCourierCommandIsNotConstructed = errors.New(
	"RequestCourierCommand must be created via NewRequestCourierCommand constructor",
)

// RequestCourierCommand moves an order into seeking_courier. The order feed reports
// the transition to the coordinator, which starts dispatching the order.
type RequestCourierCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewRequestCourierCommand creates the command for the given order.
func NewRequestCourierCommand(orderID kernel.UUID) (RequestCourierCommand, error) {
	if err := orderID.Validate(); err != nil {
		return RequestCourierCommand{}, err
	}

	return RequestCourierCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c RequestCourierCommand) Validate() error {
	return c.guard.Validate(ErrRequestCourierCommandIsNotConstructed)
}

// OrderID returns the order asking for a courier.
func (c RequestCourierCommand) OrderID() kernel.UUID {
	return c.orderID
}
