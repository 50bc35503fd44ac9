package order

import "maps"

// defaultCustomerName is shown to couriers when the order carries no customer name.
const defaultCustomerName = "Customer"

// Payload is the customer-facing part of an order that travels with every offer:
// the courier sees it in the push notification and in the offer record.
type Payload struct {
	CustomerName string
	Address      string
	Extra        map[string]string
}

// NewPayload builds a payload. The address is mandatory; extra may be nil.
func NewPayload(customerName, address string, extra map[string]string) (Payload, error) {
	if address == "" {
		return Payload{}, ErrAddressIsRequired
	}
	return Payload{
		CustomerName: customerName,
		Address:      address,
		Extra:        maps.Clone(extra),
	}, nil
}

// DisplayName returns the customer name or a neutral placeholder.
func (p Payload) DisplayName() string {
	if p.CustomerName == "" {
		return defaultCustomerName
	}
	return p.CustomerName
}

// Clone returns a copy that shares no map with p.
func (p Payload) Clone() Payload {
	p.Extra = maps.Clone(p.Extra)
	return p
}
