package dispatch

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
)

var errNoTransaction = errors.New("no active transaction")

type offerKey struct {
	courierID kernel.UUID
	orderID   kernel.UUID
}

// memStore is an in-memory store behind the UnitOfWork ports. Transactions are
// serialized, which stands in for row locks, and roll back to a snapshot.
type memStore struct {
	txMu sync.Mutex

	mu       sync.Mutex
	orders   map[kernel.UUID]*order.Order
	couriers []*courier.Courier
	offers   map[offerKey]*offer.Offer
	failures map[string]error

	// afterCommit runs once, right after the next successful commit.
	afterCommit func()
}

type memData struct {
	orders   map[kernel.UUID]*order.Order
	couriers []*courier.Courier
	offers   map[offerKey]*offer.Offer
}

func newMemStore() *memStore {
	return &memStore{
		orders:   make(map[kernel.UUID]*order.Order),
		offers:   make(map[offerKey]*offer.Offer),
		failures: make(map[string]error),
	}
}

func (s *memStore) Create() ports.UnitOfWork {
	return &memUoW{store: s}
}

func (s *memStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *memStore) onNextCommit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterCommit = fn
}

func (s *memStore) clearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.failures)
}

// failure must be called with mu held.
func (s *memStore) failure(op string) error {
	return s.failures[op]
}

func (s *memStore) copyData() memData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memData{
		orders:   maps.Clone(s.orders),
		couriers: slices.Clone(s.couriers),
		offers:   maps.Clone(s.offers),
	}
}

func (s *memStore) restore(d memData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = d.orders
	s.couriers = d.couriers
	s.offers = d.offers
}

// Test accessors.

func (s *memStore) order(id kernel.UUID) *order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		return cloneOrder(o)
	}
	return nil
}

func (s *memStore) courier(id kernel.UUID) *courier.Courier {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.couriers {
		if c.ID().IsEqual(id) {
			return cloneCourier(c)
		}
	}
	return nil
}

func (s *memStore) offer(courierID, orderID kernel.UUID) *offer.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if of, ok := s.offers[offerKey{courierID, orderID}]; ok {
		return cloneOffer(of)
	}
	return nil
}

func (s *memStore) offersFor(orderID kernel.UUID) []*offer.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*offer.Offer
	for key, of := range s.offers {
		if key.orderID.IsEqual(orderID) {
			out = append(out, cloneOffer(of))
		}
	}
	return out
}

func (s *memStore) pendingOffersFor(orderID kernel.UUID) []*offer.Offer {
	return slices.DeleteFunc(s.offersFor(orderID), func(of *offer.Offer) bool {
		return !of.IsPending()
	})
}

func (s *memStore) putOrder(o *order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID()] = cloneOrder(o)
}

func (s *memStore) putCourier(c *courier.Courier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.couriers {
		if existing.ID().IsEqual(c.ID()) {
			s.couriers[i] = cloneCourier(c)
			return
		}
	}
	s.couriers = append(s.couriers, cloneCourier(c))
}

func (s *memStore) putOffer(of *offer.Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers[offerKey{of.CourierID(), of.OrderID()}] = cloneOffer(of)
}

type memUoW struct {
	store  *memStore
	inTx   bool
	backup memData
}

func (u *memUoW) Begin(_ context.Context) error {
	if u.inTx {
		return nil
	}
	u.store.txMu.Lock()
	u.backup = u.store.copyData()
	u.inTx = true
	return nil
}

func (u *memUoW) Commit(_ context.Context) error {
	if !u.inTx {
		return errNoTransaction
	}
	u.store.mu.Lock()
	err := u.store.failure("uow.Commit")
	var hook func()
	if err == nil {
		hook, u.store.afterCommit = u.store.afterCommit, nil
	}
	u.store.mu.Unlock()
	if err != nil {
		return err
	}
	u.inTx = false
	u.backup = memData{}
	u.store.txMu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (u *memUoW) Rollback(_ context.Context) error {
	if !u.inTx {
		return errNoTransaction
	}
	u.store.restore(u.backup)
	u.inTx = false
	u.backup = memData{}
	u.store.txMu.Unlock()
	return nil
}

func (u *memUoW) OrderRepository() ports.OrderRepository {
	return memOrderRepo{store: u.store}
}

func (u *memUoW) CourierRepository() ports.CourierRepository {
	return memCourierRepo{store: u.store}
}

func (u *memUoW) OfferRepository() ports.OfferRepository {
	return memOfferRepo{store: u.store}
}

type memOrderRepo struct{ store *memStore }

func (r memOrderRepo) Add(_ context.Context, o *order.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("orders.Add"); err != nil {
		return err
	}
	r.store.orders[o.ID()] = cloneOrder(o)
	return nil
}

func (r memOrderRepo) Update(_ context.Context, o *order.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("orders.Update"); err != nil {
		return err
	}
	if _, ok := r.store.orders[o.ID()]; !ok {
		return errs.NewObjectNotFoundError("order", o.ID().String())
	}
	r.store.orders[o.ID()] = cloneOrder(o)
	return nil
}

func (r memOrderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("orders.Get"); err != nil {
		return nil, err
	}
	o, ok := r.store.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return cloneOrder(o), nil
}

func (r memOrderRepo) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r memOrderRepo) GetAllInStatus(_ context.Context, status order.Status) ([]*order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*order.Order
	for _, o := range r.store.orders {
		if o.Status() == status {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

type memCourierRepo struct{ store *memStore }

func (r memCourierRepo) Add(_ context.Context, c *courier.Courier) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.couriers = append(r.store.couriers, cloneCourier(c))
	return nil
}

func (r memCourierRepo) Update(_ context.Context, c *courier.Courier) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("couriers.Update"); err != nil {
		return err
	}
	for i, existing := range r.store.couriers {
		if existing.ID().IsEqual(c.ID()) {
			r.store.couriers[i] = cloneCourier(c)
			return nil
		}
	}
	return errs.NewObjectNotFoundError("courier", c.ID().String())
}

func (r memCourierRepo) Get(_ context.Context, id kernel.UUID) (*courier.Courier, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.couriers {
		if c.ID().IsEqual(id) {
			return cloneCourier(c), nil
		}
	}
	return nil, errs.NewObjectNotFoundError("courier", id.String())
}

func (r memCourierRepo) GetAllAvailable(_ context.Context, requireActive bool) ([]*courier.Courier, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("couriers.GetAllAvailable"); err != nil {
		return nil, err
	}
	var out []*courier.Courier
	for _, c := range r.store.couriers {
		if c.IsEligible(requireActive) {
			out = append(out, cloneCourier(c))
		}
	}
	return out, nil
}

type memOfferRepo struct{ store *memStore }

func (r memOfferRepo) Add(_ context.Context, of *offer.Offer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("offers.Add"); err != nil {
		return err
	}
	r.store.offers[offerKey{of.CourierID(), of.OrderID()}] = cloneOffer(of)
	return nil
}

func (r memOfferRepo) Update(_ context.Context, of *offer.Offer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := offerKey{of.CourierID(), of.OrderID()}
	if _, ok := r.store.offers[key]; !ok {
		return errs.NewObjectNotFoundError("offer", of.OrderID().String())
	}
	r.store.offers[key] = cloneOffer(of)
	return nil
}

func (r memOfferRepo) Get(_ context.Context, courierID, orderID kernel.UUID) (*offer.Offer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("offers.Get"); err != nil {
		return nil, err
	}
	of, ok := r.store.offers[offerKey{courierID, orderID}]
	if !ok {
		return nil, errs.NewObjectNotFoundError("offer", orderID.String())
	}
	return cloneOffer(of), nil
}

func (r memOfferRepo) GetForUpdate(ctx context.Context, courierID, orderID kernel.UUID) (*offer.Offer, error) {
	return r.Get(ctx, courierID, orderID)
}

func (r memOfferRepo) Delete(_ context.Context, courierID, orderID kernel.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.offers, offerKey{courierID, orderID})
	return nil
}

func (r memOfferRepo) FindByOrder(_ context.Context, orderID kernel.UUID) (*offer.Offer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var latest *offer.Offer
	for key, of := range r.store.offers {
		if key.orderID.IsEqual(orderID) && (latest == nil || of.CreatedAt().After(latest.CreatedAt())) {
			latest = of
		}
	}
	if latest == nil {
		return nil, errs.NewObjectNotFoundError("offer", orderID.String())
	}
	return cloneOffer(latest), nil
}

func (r memOfferRepo) GetExpiredUnsettled(_ context.Context, now time.Time) ([]*offer.Offer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*offer.Offer
	for _, of := range r.store.offers {
		if of.IsPending() && of.IsExpired(now) {
			out = append(out, cloneOffer(of))
		}
	}
	return out, nil
}

func (r memOfferRepo) GetUnprocessedSettlements(_ context.Context) ([]*offer.Offer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*offer.Offer
	for _, of := range r.store.offers {
		if !of.IsPending() && !of.IsSettled() {
			out = append(out, cloneOffer(of))
		}
	}
	return out, nil
}

func cloneOrder(o *order.Order) *order.Order {
	var courierID *kernel.UUID
	if id := o.Courier(); id != nil {
		cp := *id
		courierID = &cp
	}
	var acceptedAt *time.Time
	if at := o.AcceptedAt(); at != nil {
		cp := *at
		acceptedAt = &cp
	}
	restored, err := order.RestoreOrder(o.ID(), o.StoreID(), o.Payload(), o.Status(), courierID,
		o.AssignmentAttempts(), acceptedAt)
	if err != nil {
		panic(err)
	}
	return restored
}

func cloneCourier(c *courier.Courier) *courier.Courier {
	restored, err := courier.RestoreCourier(c.ID(), c.Name(), c.IsAvailable(), c.IsActive(),
		c.FCMToken(), c.RejectedCount())
	if err != nil {
		panic(err)
	}
	return restored
}

func cloneOffer(of *offer.Offer) *offer.Offer {
	restored, err := offer.RestoreOffer(of.OrderID(), of.CourierID(), of.SourceOrderPath(), of.Payload(),
		of.Accepted(), of.CreatedAt(), of.ExpiresAt(), of.IsSettled())
	if err != nil {
		panic(err)
	}
	return restored
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, n ports.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
