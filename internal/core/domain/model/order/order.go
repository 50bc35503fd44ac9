package order

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
	// ErrAddressIsRequired is returned for payloads without a delivery address.
	ErrAddressIsRequired = errs.NewValueIsRequiredError("address")
	// ErrAssignmentAttemptsIsInvalid is returned when restoring a negative attempt counter.
	ErrAssignmentAttemptsIsInvalid = errs.NewValueIsInvalidError("assignment attempts must not be negative")
)

// Order is the aggregate root for a delivery order as far as dispatch is concerned.
// Orders are owned by the stores that sell them; dispatch only moves them through
// SeekingCourier, Assigned, Preparing and Rejected.
//
// Order follows these invariants:
//   - Must have a valid identifier and store identifier
//   - Must carry a payload with an address
//   - Assigned and Preparing orders reference exactly one courier
//   - Status transitions follow the Status state machine
type Order struct {
	// id is the unique identifier for the order
	id kernel.UUID

	// storeID is the store the order belongs to; together with id it forms the path
	storeID kernel.UUID

	// payload is what couriers get to see
	payload Payload

	// courierID is the courier holding the outstanding offer or the accepting courier
	courierID *kernel.UUID

	// status represents the current state in the order lifecycle
	status Status

	// assignmentAttempts counts offers made for this order
	assignmentAttempts int

	// acceptedAt is set when a courier accepts the order
	acceptedAt *time.Time

	// isConstructed ensures the order was created via NewOrder
	isConstructed bool
}

// NewOrder creates a new Order in Created status.
//
// Parameters:
//   - id: Unique identifier for the order
//   - storeID: Store the order belongs to
//   - payload: Customer-facing order data
//
// Returns:
//   - *Order: The created order if all validations pass
//   - error: Joined validation errors otherwise
//
// Example:
//
//	payload, _ := order.NewPayload("Ana", "Av. Arequipa 123", nil)
//	o, err := order.NewOrder(kernel.NewUUID(), storeID, payload)
//	if err != nil {
//	    return err
//	}
func NewOrder(id kernel.UUID, storeID kernel.UUID, payload Payload) (*Order, error) {
	order := &Order{
		status:        Created,
		isConstructed: true,
	}

	if err := errors.Join(
		order.setID(id),
		order.setStoreID(storeID),
		order.setPayload(payload),
	); err != nil {
		return nil, err
	}

	return order, nil
}

// RestoreOrder reconstructs an Order from persistent storage.
// Unlike NewOrder, it accepts any valid status together with the assignment data
// and checks that status and courier assignment are consistent.
func RestoreOrder(
	id kernel.UUID,
	storeID kernel.UUID,
	payload Payload,
	status Status,
	courierID *kernel.UUID,
	assignmentAttempts int,
	acceptedAt *time.Time,
) (*Order, error) {
	order := &Order{
		isConstructed: true,
	}

	if err := errors.Join(
		order.setID(id),
		order.setStoreID(storeID),
		order.setPayload(payload),
		order.setStatus(status, courierID),
		order.setAssignmentAttempts(assignmentAttempts),
	); err != nil {
		return nil, err
	}

	order.acceptedAt = acceptedAt
	return order, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// StoreID returns the identifier of the store the order belongs to.
func (o *Order) StoreID() kernel.UUID {
	return o.storeID
}

// Path returns the storage path of the order, "stores/<storeID>/orders/<orderID>".
// Offers keep it as their source order path.
func (o *Order) Path() string {
	return BuildPath(o.storeID, o.id)
}

// Payload returns a copy of the customer-facing order data.
func (o *Order) Payload() Payload {
	return o.payload.Clone()
}

// Status returns the current status of the order.
func (o *Order) Status() Status {
	return o.status
}

// Courier returns the assigned courier's ID, or nil.
func (o *Order) Courier() *kernel.UUID {
	return o.courierID
}

// AssignmentAttempts returns how many offers have been made for the order.
func (o *Order) AssignmentAttempts() int {
	return o.assignmentAttempts
}

// AcceptedAt returns when a courier accepted the order, or nil.
func (o *Order) AcceptedAt() *time.Time {
	return o.acceptedAt
}

// IsAssignedTo reports whether the order is Assigned to the given courier.
func (o *Order) IsAssignedTo(courierID kernel.UUID) bool {
	return o.status == Assigned && o.courierID != nil && o.courierID.IsEqual(courierID)
}

// SeekCourier puts the order into SeekingCourier and clears any courier reference.
// It is used both when an order first asks for a courier and when an offer is
// revoked (timeout or rejection).
func (o *Order) SeekCourier() error {
	newStatus, err := o.status.SeekCourier()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.courierID = nil
	return nil
}

// Assign records an offer to the given courier: the status becomes Assigned and
// the assignment attempt counter is incremented.
//
// Returns:
//   - nil on success
//   - error if the courier ID is invalid or the order is not SeekingCourier
func (o *Order) Assign(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}

	newStatus, err := o.status.Assign()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.courierID = &courierID
	o.assignmentAttempts++
	return nil
}

// Accept records that the courier confirmed the order at the given instant.
// The status becomes Preparing.
func (o *Order) Accept(courierID kernel.UUID, at time.Time) error {
	if err := courierID.Validate(); err != nil {
		return err
	}

	newStatus, err := o.status.Accept()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.courierID = &courierID
	o.acceptedAt = &at
	return nil
}

// Reject gives up on the order after the seeking window expired.
func (o *Order) Reject() error {
	newStatus, err := o.status.Reject()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.courierID = nil
	return nil
}

// BuildPath renders the storage path of an order.
func BuildPath(storeID, orderID kernel.UUID) string {
	return fmt.Sprintf("stores/%s/orders/%s", storeID, orderID)
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setStoreID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.storeID = id
	return nil
}

func (o *Order) setPayload(payload Payload) error {
	if payload.Address == "" {
		return ErrAddressIsRequired
	}
	o.payload = payload.Clone()
	return nil
}

// setStatus validates and sets status with its courier reference.
// This is a private method used only during restoration.
func (o *Order) setStatus(status Status, courierID *kernel.UUID) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if err := status.ValidateCanHaveCourier(courierID != nil); err != nil {
		return err
	}
	if courierID != nil {
		if err := courierID.Validate(); err != nil {
			return err
		}
	}
	o.status = status
	o.courierID = courierID
	return nil
}

func (o *Order) setAssignmentAttempts(attempts int) error {
	if attempts < 0 {
		return ErrAssignmentAttemptsIsInvalid
	}
	o.assignmentAttempts = attempts
	return nil
}
