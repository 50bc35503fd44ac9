package commands_test

import (
	"context"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing.

type MockTx struct {
	mock.Mock
}

func (m *MockTx) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockCourierRepository struct {
	mock.Mock
}

func (m *MockCourierRepository) Add(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) Update(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*courier.Courier)
	return c, args.Error(1)
}

func (m *MockCourierRepository) GetAllAvailable(ctx context.Context, requireActive bool) ([]*courier.Courier, error) {
	args := m.Called(ctx, requireActive)
	c, _ := args.Get(0).([]*courier.Courier)
	return c, args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetAllInStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	args := m.Called(ctx, status)
	o, _ := args.Get(0).([]*order.Order)
	return o, args.Error(1)
}

type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) Add(ctx context.Context, of *offer.Offer) error {
	args := m.Called(ctx, of)
	return args.Error(0)
}

func (m *MockOfferRepository) Update(ctx context.Context, of *offer.Offer) error {
	args := m.Called(ctx, of)
	return args.Error(0)
}

func (m *MockOfferRepository) Get(ctx context.Context, courierID, orderID kernel.UUID) (*offer.Offer, error) {
	args := m.Called(ctx, courierID, orderID)
	of, _ := args.Get(0).(*offer.Offer)
	return of, args.Error(1)
}

func (m *MockOfferRepository) GetForUpdate(ctx context.Context, courierID, orderID kernel.UUID) (*offer.Offer, error) {
	args := m.Called(ctx, courierID, orderID)
	of, _ := args.Get(0).(*offer.Offer)
	return of, args.Error(1)
}

func (m *MockOfferRepository) Delete(ctx context.Context, courierID, orderID kernel.UUID) error {
	args := m.Called(ctx, courierID, orderID)
	return args.Error(0)
}

func (m *MockOfferRepository) FindByOrder(ctx context.Context, orderID kernel.UUID) (*offer.Offer, error) {
	args := m.Called(ctx, orderID)
	of, _ := args.Get(0).(*offer.Offer)
	return of, args.Error(1)
}

func (m *MockOfferRepository) GetExpiredUnsettled(ctx context.Context, now time.Time) ([]*offer.Offer, error) {
	args := m.Called(ctx, now)
	of, _ := args.Get(0).([]*offer.Offer)
	return of, args.Error(1)
}

func (m *MockOfferRepository) GetUnprocessedSettlements(ctx context.Context) ([]*offer.Offer, error) {
	args := m.Called(ctx)
	of, _ := args.Get(0).([]*offer.Offer)
	return of, args.Error(1)
}

type MockCourierUoW struct {
	MockTx
}

func (m *MockCourierUoW) CourierRepository() ports.CourierRepository {
	args := m.Called()
	return args.Get(0).(ports.CourierRepository)
}

type MockCourierUoWFactory struct {
	mock.Mock
}

func (m *MockCourierUoWFactory) Create() commands.CourierUoW {
	args := m.Called()
	return args.Get(0).(commands.CourierUoW)
}

type MockOrderUoW struct {
	MockTx
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct {
	mock.Mock
}

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockOfferUoW struct {
	MockTx
}

func (m *MockOfferUoW) OfferRepository() ports.OfferRepository {
	args := m.Called()
	return args.Get(0).(ports.OfferRepository)
}

type MockOfferUoWFactory struct {
	mock.Mock
}

func (m *MockOfferUoWFactory) Create() commands.OfferUoW {
	args := m.Called()
	return args.Get(0).(commands.OfferUoW)
}
