// Package courierrepo provides data transfer objects and mapping functions for courier persistence.
// This package implements the repository pattern for the courier registry, handling
// the conversion between domain entities and database representations.
package courierrepo

import (
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CourierDTO represents the database structure for persisting courier aggregates.
// Boolean columns carry no GORM defaults so that false is written as-is on create.
type CourierDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"type:varchar(255);not null"`
	Available     bool      `gorm:"not null;index"`
	Active        bool      `gorm:"not null"`
	FCMToken      string    `gorm:"column:fcm_token;type:text;not null"`
	RejectedCount int       `gorm:"type:int;not null"`
}

// TableName specifies the database table name for courier entities.
// Overrides GORM's default naming convention to use "couriers" instead of "courier_dtos".
func (CourierDTO) TableName() string {
	return "couriers"
}

// fromDomain converts a courier domain aggregate to its database representation.
func fromDomain(c *courier.Courier) CourierDTO {
	return CourierDTO{
		ID:            c.ID().Bytes(),
		Name:          c.Name(),
		Available:     c.IsAvailable(),
		Active:        c.IsActive(),
		FCMToken:      c.FCMToken(),
		RejectedCount: c.RejectedCount(),
	}
}

// toDomain converts a database DTO to a courier domain aggregate using RestoreCourier.
func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	return courier.RestoreCourier(id, dto.Name, dto.Available, dto.Active, dto.FCMToken, dto.RejectedCount)
}
