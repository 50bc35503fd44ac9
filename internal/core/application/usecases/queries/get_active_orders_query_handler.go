package queries

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetActiveOrdersQueryHandler reads active orders with plain SQL.
type GetActiveOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveOrdersQueryHandler creates a handler for active order queries.
func NewGetActiveOrdersQueryHandler(db *gorm.DB) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{db: db}
}

// Handle returns seeking and assigned orders, oldest id first.
func (h GetActiveOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetActiveOrdersQuery,
) ([]GetActiveOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders := make([]GetActiveOrdersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			store_id,
			status,
			courier_id,
			assignment_attempts
		FROM orders
		WHERE status IN (?, ?)
		ORDER BY id
	`, order.SeekingCourier.String(), order.Assigned.String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			result    GetActiveOrdersQueryResponse
			id        uuid.UUID
			storeID   uuid.UUID
			courierID *uuid.UUID
		)

		err = rows.Scan(&id, &storeID, &result.Status, &courierID, &result.AssignmentAttempts)
		if err != nil {
			return nil, err
		}

		if result.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if result.StoreID, err = kernel.UUIDFromBytes(storeID[:]); err != nil {
			return nil, err
		}
		if courierID != nil {
			cID, idErr := kernel.UUIDFromBytes(courierID[:])
			if idErr != nil {
				return nil, idErr
			}
			result.CourierID = &cID
		}

		orders = append(orders, result)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
