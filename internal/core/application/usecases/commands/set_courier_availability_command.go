package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrSetCourierAvailabilityCommandIsNotConstructed = errors.New(
	"SetCourierAvailabilityCommand must be created via NewSetCourierAvailabilityCommand constructor",
)

// SetCourierAvailabilityCommand updates the availability of a courier. The active flag
// and the push token are optional: nil leaves the stored value unchanged.
//
// A courier turning available is picked up by the courier feed and makes the
// coordinator rescan pending orders.
type SetCourierAvailabilityCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	available bool
	active    *bool
	fcmToken  *string

	guard guard.ConstructorGuard
}

// NewSetCourierAvailabilityCommand creates the command.
//
// Parameters:
//   - courierID: The courier to update
//   - available: New availability
//   - active: Optional new active flag
//   - fcmToken: Optional new push token; an empty string clears it
//
// Returns:
//   - SetCourierAvailabilityCommand: The command
//   - error: Validation error for an invalid courier ID
func NewSetCourierAvailabilityCommand(
	courierID kernel.UUID,
	available bool,
	active *bool,
	fcmToken *string,
) (SetCourierAvailabilityCommand, error) {
	if err := courierID.Validate(); err != nil {
		return SetCourierAvailabilityCommand{}, err
	}

	command := SetCourierAvailabilityCommand{
		courierID: courierID,
		available: available,
		guard:     guard.NewConstructorGuard(),
	}
	if active != nil {
		value := *active
		command.active = &value
	}
	if fcmToken != nil {
		value := strings.TrimSpace(*fcmToken)
		command.fcmToken = &value
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c SetCourierAvailabilityCommand) Validate() error {
	return c.guard.Validate(ErrSetCourierAvailabilityCommandIsNotConstructed)
}

// CourierID returns the courier to update.
func (c SetCourierAvailabilityCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Available returns the new availability.
func (c SetCourierAvailabilityCommand) Available() bool {
	return c.available
}

// Active returns the new active flag, or nil to keep the stored one.
func (c SetCourierAvailabilityCommand) Active() *bool {
	return c.active
}

// FCMToken returns the new push token, or nil to keep the stored one.
func (c SetCourierAvailabilityCommand) FCMToken() *string {
	return c.fcmToken
}
