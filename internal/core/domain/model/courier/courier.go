package courier

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Domain errors for courier operations.
var (
	// ErrNameIsRequired is returned when attempting to create a courier without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrRejectedCountIsInvalid is returned when restoring a negative rejection counter.
	ErrRejectedCountIsInvalid = errs.NewValueIsInvalidError("rejected count must not be negative")
	// ErrCourierIsNotConstructed is returned when using an improperly initialized Courier.
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier constructor")
)

// Courier represents a delivery courier in the courier registry.
// It is an aggregate root holding what dispatch needs to offer orders to a courier.
//
// Key responsibilities:
//   - Managing courier identity (ID, name)
//   - Tracking availability and activity flags set by the courier app
//   - Holding the push token used to notify the courier about offers
//   - Counting offers the courier rejected
//
// Example usage:
//
//	c, err := courier.NewCourier(kernel.NewUUID(), "Luis")
//	if err != nil {
//	    return err
//	}
//	c.SetAvailable(true)
//	c.SetFCMToken("fcm-token")
type Courier struct {
	// id uniquely identifies the courier
	id kernel.UUID
	// name is the human-readable name of the courier
	name string
	// available is true while the courier is ready to take an order
	available bool
	// active is true while the courier account is enabled
	active bool
	// fcmToken is the device push token, empty when unknown
	fcmToken string
	// rejectedCount counts offers the courier turned down
	rejectedCount int
	// guard ensures the courier was properly constructed
	guard guard.ConstructorGuard
}

// NewCourier creates an active courier that is not available yet.
//
// Parameters:
//   - id: Unique identifier for the courier (must be valid UUID)
//   - name: Human-readable name (must be non-empty)
//
// Returns:
//   - *Courier: A new courier
//   - error: Joined validation errors if any parameter is invalid
func NewCourier(id kernel.UUID, name string) (*Courier, error) {
	courier := &Courier{
		active: true,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		courier.setID(id),
		courier.setName(name),
	); err != nil {
		return nil, err
	}

	return courier, nil
}

// RestoreCourier reconstructs a Courier aggregate from the registry.
//
// Parameters:
//   - id: Unique identifier for the courier
//   - name: Human-readable courier name
//   - available, active: Registry flags
//   - fcmToken: Push token, may be empty
//   - rejectedCount: Number of rejected offers (must not be negative)
//
// Returns:
//   - *Courier: Restored courier aggregate
//   - error: Validation error if any parameter is invalid
func RestoreCourier(
	id kernel.UUID,
	name string,
	available bool,
	active bool,
	fcmToken string,
	rejectedCount int,
) (*Courier, error) {
	courier := &Courier{
		available: available,
		active:    active,
		fcmToken:  fcmToken,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		courier.setID(id),
		courier.setName(name),
		courier.setRejectedCount(rejectedCount),
	); err != nil {
		return nil, err
	}

	return courier, nil
}

// IsEqual compares two couriers by their unique identifiers.
func (c *Courier) IsEqual(other *Courier) bool {
	if other == nil {
		return false
	}
	return c.id.IsEqual(other.id)
}

// Validate checks if the Courier was properly constructed.
//
// Returns:
//   - error: ErrCourierIsNotConstructed if improperly initialized, nil if valid
func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

// ID returns the unique identifier of the courier.
func (c *Courier) ID() kernel.UUID {
	return c.id
}

// Name returns the human-readable name of the courier.
func (c *Courier) Name() string {
	return c.name
}

// IsAvailable reports whether the courier is ready to take an order.
func (c *Courier) IsAvailable() bool {
	return c.available
}

// IsActive reports whether the courier account is enabled.
func (c *Courier) IsActive() bool {
	return c.active
}

// FCMToken returns the push token of the courier's device, or "".
func (c *Courier) FCMToken() string {
	return c.fcmToken
}

// HasPushToken reports whether the courier can receive push notifications.
func (c *Courier) HasPushToken() bool {
	return c.fcmToken != ""
}

// RejectedCount returns how many offers the courier turned down.
func (c *Courier) RejectedCount() int {
	return c.rejectedCount
}

// IsEligible reports whether the courier may receive an offer.
//
// Parameters:
//   - requireActive: also demand the active flag, as configured for the deployment
//
// Example:
//
//	if !c.IsEligible(settings.RequireActiveCourier) {
//	    continue
//	}
func (c *Courier) IsEligible(requireActive bool) bool {
	if !c.available {
		return false
	}
	return !requireActive || c.active
}

// SetAvailable updates the availability flag.
func (c *Courier) SetAvailable(available bool) {
	c.available = available
}

// SetActive updates the activity flag.
func (c *Courier) SetActive(active bool) {
	c.active = active
}

// SetFCMToken replaces the push token; an empty token disables push notifications.
func (c *Courier) SetFCMToken(token string) {
	c.fcmToken = token
}

// RegisterRejection increments the rejection counter.
func (c *Courier) RegisterRejection() {
	c.rejectedCount++
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Courier) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	c.name = name
	return nil
}

func (c *Courier) setRejectedCount(count int) error {
	if count < 0 {
		return ErrRejectedCountIsInvalid
	}
	c.rejectedCount = count
	return nil
}
