package queries

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// RemainingTimeReader is implemented by the dispatch coordinator.
type RemainingTimeReader interface {
	RemainingTime(ctx context.Context, orderID kernel.UUID) (int, error)
}

// GetRemainingTimeQueryHandler answers remaining time queries from the coordinator,
// which consults its cache before the assignment record store.
type GetRemainingTimeQueryHandler struct {
	reader RemainingTimeReader
}

// NewGetRemainingTimeQueryHandler creates a handler over the given reader.
func NewGetRemainingTimeQueryHandler(reader RemainingTimeReader) GetRemainingTimeQueryHandler {
	return GetRemainingTimeQueryHandler{reader: reader}
}

// Handle returns the remaining seconds, or errs.ErrObjectNotFound for unknown orders.
func (h GetRemainingTimeQueryHandler) Handle(
	ctx context.Context,
	query GetRemainingTimeQuery,
) (GetRemainingTimeQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetRemainingTimeQueryResponse{}, err
	}

	seconds, err := h.reader.RemainingTime(ctx, query.OrderID())
	if err != nil {
		return GetRemainingTimeQueryResponse{}, err
	}

	return GetRemainingTimeQueryResponse{
		OrderID:          query.OrderID(),
		SecondsRemaining: max(seconds, 0),
	}, nil
}
