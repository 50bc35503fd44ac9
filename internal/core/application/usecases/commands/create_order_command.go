package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand represents a store registering a new order. The order starts in
// created status and is not dispatched until the store requests a courier.
//
// Example:
//
//	payload, _ := order.NewPayload("Ana", "Av. Arequipa 123", nil)
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), storeID, payload)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(uowFactory)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	storeID kernel.UUID
	payload order.Payload

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to register an order.
// Validates both identifiers and requires a delivery address in the payload.
func NewCreateOrderCommand(orderID kernel.UUID, storeID kernel.UUID, payload order.Payload) (CreateOrderCommand, error) {
	orderCommand := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderCommand.setOrderID(orderID),
		orderCommand.setStoreID(storeID),
		orderCommand.setPayload(payload),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return orderCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// StoreID returns the store the order belongs to.
func (c CreateOrderCommand) StoreID() kernel.UUID {
	return c.storeID
}

// Payload returns a copy of the customer-facing order data.
func (c CreateOrderCommand) Payload() order.Payload {
	return c.payload.Clone()
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setStoreID(storeID kernel.UUID) error {
	if err := storeID.Validate(); err != nil {
		return err
	}

	c.storeID = storeID
	return nil
}

func (c *CreateOrderCommand) setPayload(payload order.Payload) error {
	if payload.Address == "" {
		return order.ErrAddressIsRequired
	}

	c.payload = payload.Clone()
	return nil
}
