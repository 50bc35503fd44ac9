// Package offerrepo persists the assignment record store: one row per offer,
// keyed by (courier_id, order_id).
package offerrepo

import (
	"time"

	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"

	"github.com/google/uuid"
)

// OfferDTO represents the database structure of an offer.
// CreatedAt is set by the domain, never by GORM.
type OfferDTO struct {
	CourierID       uuid.UUID            `gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID            `gorm:"type:uuid;primaryKey;index"`
	SourceOrderPath string               `gorm:"type:text;not null"`
	Payload         orderrepo.PayloadDTO `gorm:"embedded"`
	Accepted        *bool
	CreatedAt       time.Time `gorm:"not null;autoCreateTime:false"`
	ExpiresAt       time.Time `gorm:"not null;index"`
	Settled         bool      `gorm:"not null"`
}

// TableName specifies the database table name for offers.
func (OfferDTO) TableName() string {
	return "offers"
}

func fromDomain(of *offer.Offer) OfferDTO {
	return OfferDTO{
		CourierID:       of.CourierID().Bytes(),
		OrderID:         of.OrderID().Bytes(),
		SourceOrderPath: of.SourceOrderPath(),
		Payload:         orderrepo.PayloadFromDomain(of.Payload()),
		Accepted:        of.Accepted(),
		CreatedAt:       of.CreatedAt().UTC(),
		ExpiresAt:       of.ExpiresAt().UTC(),
		Settled:         of.IsSettled(),
	}
}

func toDomain(dto OfferDTO) (*offer.Offer, error) {
	courierID, err := kernel.UUIDFromBytes(dto.CourierID[:])
	if err != nil {
		return nil, err
	}

	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	payload, err := dto.Payload.ToDomain()
	if err != nil {
		return nil, err
	}

	return offer.RestoreOffer(
		orderID,
		courierID,
		dto.SourceOrderPath,
		payload,
		dto.Accepted,
		dto.CreatedAt,
		dto.ExpiresAt,
		dto.Settled,
	)
}
