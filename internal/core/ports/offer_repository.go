package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
)

// OfferRepository defines the contract of the assignment record store.
// Offers are keyed by (courierID, orderID).
type OfferRepository interface {
	// Add persists a new offer.
	Add(ctx context.Context, offer *offer.Offer) error

	// Update persists the answer and settlement flag of an existing offer.
	Update(ctx context.Context, offer *offer.Offer) error

	// Get retrieves the offer made to courierID for orderID.
	// Returns errs.ErrObjectNotFound when it does not exist.
	Get(ctx context.Context, courierID, orderID kernel.UUID) (*offer.Offer, error)

	// GetForUpdate is Get with the offer row locked until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, courierID, orderID kernel.UUID) (*offer.Offer, error)

	// Delete removes the offer. Deleting a missing offer is not an error.
	Delete(ctx context.Context, courierID, orderID kernel.UUID) error

	// FindByOrder looks the order up across all couriers and returns its most recent offer.
	// Returns errs.ErrObjectNotFound when no courier holds an offer for the order.
	FindByOrder(ctx context.Context, orderID kernel.UUID) (*offer.Offer, error)

	// GetExpiredUnsettled returns unanswered offers whose window closed at or before now.
	GetExpiredUnsettled(ctx context.Context, now time.Time) ([]*offer.Offer, error)

	// GetUnprocessedSettlements returns answered offers not yet settled by dispatch.
	GetUnprocessedSettlements(ctx context.Context) ([]*offer.Offer, error)
}
