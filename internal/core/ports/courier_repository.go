// Package ports defines the contracts between the dispatch core and its infrastructure:
// repositories, the unit of work, change feeds and the notification sender.
// These interfaces establish dependency inversion and keep the core testable with fakes.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// CourierRepository defines the persistence contract for the courier registry.
// Dispatch only reads the registry, except for the rejection counter.
type CourierRepository interface {
	// Add persists a new courier aggregate to storage.
	Add(ctx context.Context, courier *courier.Courier) error

	// Update persists changes to an existing courier aggregate.
	Update(ctx context.Context, courier *courier.Courier) error

	// Get retrieves a courier aggregate by its unique identifier.
	// Returns errs.ErrObjectNotFound when no such courier exists.
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// GetAllAvailable retrieves the couriers that may receive an offer right now.
	// The result order is the registry's natural order and is used as-is by the
	// round-robin selection.
	//
	// Business Rules:
	//   - available must be true
	//   - active must also be true when requireActive is set
	//
	// Example:
	//   couriers, err := repo.GetAllAvailable(ctx, settings.RequireActiveCourier)
	//   if err != nil {
	//       return fmt.Errorf("failed to query courier registry: %w", err)
	//   }
	GetAllAvailable(ctx context.Context, requireActive bool) ([]*courier.Courier, error)
}
