// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Status is stored by name so that the change feed triggers can compare it in SQL.
type OrderDTO struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StoreID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	Payload            PayloadDTO `gorm:"embedded"`
	Status             string     `gorm:"type:varchar(32);not null;index"`
	CourierID          *uuid.UUID `gorm:"type:uuid;index"`
	AssignmentAttempts int        `gorm:"type:int;not null"`
	AcceptedAt         *time.Time
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// fromDomain converts an order domain aggregate to its database representation.
// Maps all order attributes including optional courier assignment.
func fromDomain(o *order.Order) OrderDTO {
	var courierID *uuid.UUID
	if id := o.Courier(); id != nil {
		raw := id.Bytes()
		courierID = &raw
	}

	return OrderDTO{
		ID:                 o.ID().Bytes(),
		StoreID:            o.StoreID().Bytes(),
		Payload:            PayloadFromDomain(o.Payload()),
		Status:             o.Status().String(),
		CourierID:          courierID,
		AssignmentAttempts: o.AssignmentAttempts(),
		AcceptedAt:         o.AcceptedAt(),
	}
}

// toDomain converts a database DTO to an order domain aggregate.
// Reconstructs the complete aggregate including status and courier assignment using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	storeID, err := kernel.UUIDFromBytes(dto.StoreID[:])
	if err != nil {
		return nil, err
	}

	var courierID *kernel.UUID
	if dto.CourierID != nil {
		cID, courierErr := kernel.UUIDFromBytes((*dto.CourierID)[:])
		if courierErr != nil {
			return nil, courierErr
		}

		courierID = &cID
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	payload, err := dto.Payload.ToDomain()
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(id, storeID, payload, status, courierID, dto.AssignmentAttempts, dto.AcceptedAt)
}
