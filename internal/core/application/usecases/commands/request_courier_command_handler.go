package commands

import (
	"context"
	"fmt"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

// RequestCourierCommandHandler puts created or rejected orders into seeking_courier.
type RequestCourierCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewRequestCourierCommandHandler creates the handler.
func NewRequestCourierCommandHandler(uowFactory OrderUoWFactory) RequestCourierCommandHandler {
	return RequestCourierCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle moves the order to seeking_courier.
//
// Returns:
//   - nil when the order is seeking a courier afterwards, including when it already was
//   - errs.ErrObjectNotFound for unknown orders
//   - errs.ErrValueIsInvalid when the order is assigned or preparing
func (h *RequestCourierCommandHandler) Handle(ctx context.Context, cmd RequestCourierCommand) error {
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

	orderRepo := uow.OrderRepository()
	orderAggregate, err := orderRepo.GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	switch orderAggregate.Status() {
	case order.SeekingCourier:
		return nil
	case order.Created, order.Rejected:
	default:
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("order in status %s cannot request a courier", orderAggregate.Status()))
	}

	if err = orderAggregate.SeekCourier(); err != nil {
		return err
	}
	if err = orderRepo.Update(ctx, orderAggregate); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
