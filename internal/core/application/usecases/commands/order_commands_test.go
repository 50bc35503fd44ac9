package commands_test

import (
	"errors"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPayload(t *testing.T) order.Payload {
	t.Helper()
	payload, err := order.NewPayload("Ana", "Av. Arequipa 123", map[string]string{"total": "42.50"})
	require.NoError(t, err)
	return payload
}

func restoreOrder(t *testing.T, status order.Status) *order.Order {
	t.Helper()
	var courierID *kernel.UUID
	if status == order.Assigned || status == order.Preparing {
		id := kernel.NewUUID()
		courierID = &id
	}
	o, err := order.RestoreOrder(kernel.NewUUID(), kernel.NewUUID(), newPayload(t), status, courierID, 0, nil)
	require.NoError(t, err)
	return o
}

func TestNewCreateOrderCommand(t *testing.T) {
	t.Run("should build a valid command", func(t *testing.T) {
		orderID, storeID := kernel.NewUUID(), kernel.NewUUID()

		cmd, err := commands.NewCreateOrderCommand(orderID, storeID, newPayload(t))

		require.NoError(t, err)
		assert.Equal(t, orderID, cmd.OrderID())
		assert.Equal(t, storeID, cmd.StoreID())
		assert.Equal(t, "42.50", cmd.Payload().Extra["total"])
	})

	t.Run("should join validation errors", func(t *testing.T) {
		_, err := commands.NewCreateOrderCommand(kernel.UUID{}, kernel.NewUUID(), order.Payload{})

		require.ErrorIs(t, err, order.ErrAddressIsRequired)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestCreateOrderCommandHandler_Handle(t *testing.T) {
	t.Run("should add a created order", func(t *testing.T) {
		// Arrange
		ctx := t.Context()
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), kernel.NewUUID(), newPayload(t))
		require.NoError(t, err)

		mockRepo := new(MockOrderRepository)
		mockUoW := new(MockOrderUoW)
		mockFactory := new(MockOrderUoWFactory)

		mockFactory.On("Create").Return(mockUoW).Once()
		mock.InOrder(
			mockUoW.On("Begin", ctx).Return(nil).Once(),
			mockUoW.On("OrderRepository").Return(mockRepo).Once(),
			mockRepo.On("Add", ctx, mock.MatchedBy(func(o *order.Order) bool {
				return o.ID() == cmd.OrderID() && o.Status() == order.Created
			})).Return(nil).Once(),
			mockUoW.On("Commit", ctx).Return(nil).Once(),
			mockUoW.On("Rollback", ctx).Return(nil).Once(),
		)

		handler := commands.NewCreateOrderCommandHandler(mockFactory)

		// Act
		err = handler.Handle(ctx, cmd)

		// Assert
		require.NoError(t, err)
		mockUoW.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("should return commit errors", func(t *testing.T) {
		// Arrange
		ctx := t.Context()
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), kernel.NewUUID(), newPayload(t))
		require.NoError(t, err)
		expectedError := errors.New("commit failed")

		mockRepo := new(MockOrderRepository)
		mockUoW := new(MockOrderUoW)
		mockFactory := new(MockOrderUoWFactory)

		mockFactory.On("Create").Return(mockUoW).Once()
		mockUoW.On("Begin", ctx).Return(nil).Once()
		mockUoW.On("OrderRepository").Return(mockRepo).Once()
		mockRepo.On("Add", ctx, mock.Anything).Return(nil).Once()
		mockUoW.On("Commit", ctx).Return(expectedError).Once()
		mockUoW.On("Rollback", ctx).Return(nil).Once()

		handler := commands.NewCreateOrderCommandHandler(mockFactory)

		// Act
		err = handler.Handle(ctx, cmd)

		// Assert
		require.ErrorIs(t, err, expectedError)
	})
}

func TestRequestCourierCommandHandler_Handle(t *testing.T) {
	t.Run("should move created and rejected orders to seeking", func(t *testing.T) {
		for _, status := range []order.Status{order.Created, order.Rejected} {
			t.Run(status.String(), func(t *testing.T) {
				// Arrange
				ctx := t.Context()
				stored := restoreOrder(t, status)
				cmd, err := commands.NewRequestCourierCommand(stored.ID())
				require.NoError(t, err)

				mockRepo := new(MockOrderRepository)
				mockUoW := new(MockOrderUoW)
				mockFactory := new(MockOrderUoWFactory)

				mockFactory.On("Create").Return(mockUoW).Once()
				mock.InOrder(
					mockUoW.On("Begin", ctx).Return(nil).Once(),
					mockUoW.On("OrderRepository").Return(mockRepo).Once(),
					mockRepo.On("GetForUpdate", ctx, stored.ID()).Return(stored, nil).Once(),
					mockRepo.On("Update", ctx, mock.MatchedBy(func(o *order.Order) bool {
						return o.Status() == order.SeekingCourier
					})).Return(nil).Once(),
					mockUoW.On("Commit", ctx).Return(nil).Once(),
					mockUoW.On("Rollback", ctx).Return(nil).Once(),
				)

				handler := commands.NewRequestCourierCommandHandler(mockFactory)

				// Act
				err = handler.Handle(ctx, cmd)

				// Assert
				require.NoError(t, err)
				mockRepo.AssertExpectations(t)
			})
		}
	})

	t.Run("should be a no-op for seeking orders", func(t *testing.T) {
		// Arrange
		ctx := t.Context()
		stored := restoreOrder(t, order.SeekingCourier)
		cmd, err := commands.NewRequestCourierCommand(stored.ID())
		require.NoError(t, err)

		mockRepo := new(MockOrderRepository)
		mockUoW := new(MockOrderUoW)
		mockFactory := new(MockOrderUoWFactory)

		mockFactory.On("Create").Return(mockUoW).Once()
		mockUoW.On("Begin", ctx).Return(nil).Once()
		mockUoW.On("OrderRepository").Return(mockRepo).Once()
		mockRepo.On("GetForUpdate", ctx, stored.ID()).Return(stored, nil).Once()
		mockUoW.On("Rollback", ctx).Return(nil).Once()

		handler := commands.NewRequestCourierCommandHandler(mockFactory)

		// Act
		err = handler.Handle(ctx, cmd)

		// Assert
		require.NoError(t, err)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		mockUoW.AssertNotCalled(t, "Commit", ctx)
	})

	t.Run("should refuse orders that are being dispatched or done", func(t *testing.T) {
		for _, status := range []order.Status{order.Assigned, order.Preparing} {
			t.Run(status.String(), func(t *testing.T) {
				// Arrange
				ctx := t.Context()
				stored := restoreOrder(t, status)
				cmd, err := commands.NewRequestCourierCommand(stored.ID())
				require.NoError(t, err)

				mockRepo := new(MockOrderRepository)
				mockUoW := new(MockOrderUoW)
				mockFactory := new(MockOrderUoWFactory)

				mockFactory.On("Create").Return(mockUoW).Once()
				mockUoW.On("Begin", ctx).Return(nil).Once()
				mockUoW.On("OrderRepository").Return(mockRepo).Once()
				mockRepo.On("GetForUpdate", ctx, stored.ID()).Return(stored, nil).Once()
				mockUoW.On("Rollback", ctx).Return(nil).Once()

				handler := commands.NewRequestCourierCommandHandler(mockFactory)

				// Act
				err = handler.Handle(ctx, cmd)

				// Assert
				require.ErrorIs(t, err, errs.ErrValueIsInvalid)
			})
		}
	})

	t.Run("should reject a zero value command", func(t *testing.T) {
		handler := commands.NewRequestCourierCommandHandler(new(MockOrderUoWFactory))

		err := handler.Handle(t.Context(), commands.RequestCourierCommand{})

		require.ErrorIs(t, err, commands.ErrRequestCourierCommandIsNotConstructed)
	})
}
