package commands

import (
	"context"
)

// SetCourierAvailabilityCommandHandler applies availability changes to the courier registry.
type SetCourierAvailabilityCommandHandler struct {
	uowFactory CourierUoWFactory
}

// NewSetCourierAvailabilityCommandHandler creates the handler.
func NewSetCourierAvailabilityCommandHandler(uowFactory CourierUoWFactory) SetCourierAvailabilityCommandHandler {
	return SetCourierAvailabilityCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle loads the courier, applies the change and stores it.
// Returns errs.ErrObjectNotFound for unknown couriers.
func (h *SetCourierAvailabilityCommandHandler) Handle(ctx context.Context, cmd SetCourierAvailabilityCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	courierRepo := uow.CourierRepository()
	courierEntity, err := courierRepo.Get(ctx, cmd.CourierID())
	if err != nil {
		return err
	}

	courierEntity.SetAvailable(cmd.Available())
	if active := cmd.Active(); active != nil {
		courierEntity.SetActive(*active)
	}
	if token := cmd.FCMToken(); token != nil {
		courierEntity.SetFCMToken(*token)
	}

	if err = courierRepo.Update(ctx, courierEntity); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
