package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// Dispatch reads orders to check their status before acting and writes them
// when an offer is made, revoked, accepted or given up on.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	// The order must exist in the repository and be valid.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	// Returns errs.ErrObjectNotFound when no such order exists.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate retrieves an order and locks its row until the surrounding
	// transaction ends. It must be called inside a unit of work started with Begin;
	// it is the read half of every read-check-write on an order's status.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllInStatus retrieves all orders currently in the given status.
	//
	// Example:
	//   seeking, err := repo.GetAllInStatus(ctx, order.SeekingCourier)
	//   if err != nil {
	//       return fmt.Errorf("failed to list seeking orders: %w", err)
	//   }
	GetAllInStatus(ctx context.Context, status order.Status) ([]*order.Order, error)
}
