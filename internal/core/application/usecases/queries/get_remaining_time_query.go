package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetRemainingTimeQueryIsNotConstructed = errors.New(
		"GetRemainingTimeQuery must be created via NewGetRemainingTimeQuery constructor",
	)
)

// GetRemainingTimeQuery asks how many whole seconds are left before the current
// window of an order closes.
//
// Example:
//
//	query, err := NewGetRemainingTimeQuery(orderID)
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, query)
type GetRemainingTimeQuery struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

// NewGetRemainingTimeQuery creates a remaining time query for one order.
func NewGetRemainingTimeQuery(orderID kernel.UUID) (GetRemainingTimeQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetRemainingTimeQuery{}, err
	}

	return GetRemainingTimeQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// OrderID returns the order the query is about.
func (q GetRemainingTimeQuery) OrderID() kernel.UUID {
	return q.orderID
}

// Validate ensures the query was created through the constructor.
func (q GetRemainingTimeQuery) Validate() error {
	return q.guard.Validate(ErrGetRemainingTimeQueryIsNotConstructed)
}

// GetRemainingTimeQueryResponse carries the answer, never negative.
type GetRemainingTimeQueryResponse struct {
	OrderID          kernel.UUID
	SecondsRemaining int
}
