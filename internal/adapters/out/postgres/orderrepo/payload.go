package orderrepo

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"dispatch/internal/core/domain/model/order"
)

// StringMap stores free-form order attributes in a jsonb column.
type StringMap map[string]string

// Value implements driver.Valuer.
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (m *StringMap) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringMap", src)
	}

	decoded := map[string]string{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	if len(decoded) == 0 {
		decoded = nil
	}
	*m = decoded
	return nil
}

// GormDataType tells AutoMigrate which column type to create.
func (StringMap) GormDataType() string {
	return "jsonb"
}

// PayloadDTO is the customer-facing part of an order. It is embedded both in the
// orders table and in the offers table, which carries a copy for the courier.
type PayloadDTO struct {
	CustomerName string    `gorm:"type:varchar(255);not null"`
	Address      string    `gorm:"type:text;not null"`
	Extra        StringMap `gorm:"not null"`
}

// PayloadFromDomain converts a domain payload to its database representation.
func PayloadFromDomain(p order.Payload) PayloadDTO {
	return PayloadDTO{
		CustomerName: p.CustomerName,
		Address:      p.Address,
		Extra:        StringMap(p.Clone().Extra),
	}
}

// ToDomain converts the DTO back to a domain payload.
func (dto PayloadDTO) ToDomain() (order.Payload, error) {
	return order.NewPayload(dto.CustomerName, dto.Address, dto.Extra)
}
