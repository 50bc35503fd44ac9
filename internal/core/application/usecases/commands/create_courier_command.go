package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateCourierCommandIsNotConstructed = errors.New(
		"CreateCourierCommand must be created via NewCreateCourierCommand constructor",
	)
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
)

// CreateCourierCommand represents a request to register a courier in the registry.
// New couriers are active but not available until they say so.
//
// Example:
//
//	cmd, err := NewCreateCourierCommand("John Doe", "fcm-token")
//	if err != nil {
//	    return fmt.Errorf("invalid courier data: %w", err)
//	}
//
//	handler := NewCreateCourierCommandHandler(uowFactory)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create courier: %w", err)
//	}
//	fmt.Printf("Created courier with ID: %s", cmd.CourierID())
type CreateCourierCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	name      string
	fcmToken  string

	guard guard.ConstructorGuard
}

// NewCreateCourierCommand creates a command to register a new courier.
// A unique ID is generated for the courier. The push token is optional.
func NewCreateCourierCommand(name string, fcmToken string) (CreateCourierCommand, error) {
	command := CreateCourierCommand{
		fcmToken: strings.TrimSpace(fcmToken),
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setCourierID(kernel.NewUUID()),
		command.setName(name),
	); err != nil {
		return CreateCourierCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateCourierCommand) Validate() error {
	return c.guard.Validate(ErrCreateCourierCommandIsNotConstructed)
}

// CourierID returns the generated courier ID.
func (c CreateCourierCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Name returns the courier name.
func (c CreateCourierCommand) Name() string {
	return c.name
}

// FCMToken returns the push token, possibly empty.
func (c CreateCourierCommand) FCMToken() string {
	return c.fcmToken
}

func (c *CreateCourierCommand) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.courierID = id
	return nil
}

func (c *CreateCourierCommand) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameIsRequired
	}

	c.name = name
	return nil
}
