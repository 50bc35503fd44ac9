package dispatch

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type harness struct {
	store    *memStore
	clock    *clockwork.FakeClock
	sender   *mockSender
	selector *services.RoundRobinSelector
	coord    *Coordinator
}

type harnessOption func(*harness, *Settings)

func withCursor(cursor uint64) harnessOption {
	return func(h *harness, _ *Settings) {
		h.selector = services.NewRoundRobinSelectorAt(cursor)
	}
}

func withSettings(mutate func(*Settings)) harnessOption {
	return func(_ *harness, s *Settings) {
		mutate(s)
	}
}

// withSender replaces the default permissive sender expectation.
func withSender(expect func(*mockSender)) harnessOption {
	return func(h *harness, _ *Settings) {
		expect(h.sender)
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		store:    newMemStore(),
		clock:    clockwork.NewFakeClockAt(testEpoch),
		sender:   &mockSender{},
		selector: services.NewRoundRobinSelector(),
	}
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(h, &settings)
	}
	if len(h.sender.ExpectedCalls) == 0 {
		h.sender.On("Send", mock.Anything, mock.Anything).Return(nil).Maybe()
	}

	coord, err := NewCoordinator(h.store, h.sender, h.selector, h.clock, settings, discardLogger())
	require.NoError(t, err)
	t.Cleanup(coord.Close)
	h.coord = coord
	return h
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (h *harness) addCourier(t *testing.T, token string) *courier.Courier {
	t.Helper()
	c, err := courier.RestoreCourier(kernel.NewUUID(), "courier "+token, true, true, token, 0)
	require.NoError(t, err)
	h.store.putCourier(c)
	return c
}

func (h *harness) addSeekingOrder(t *testing.T) *order.Order {
	t.Helper()
	payload, err := order.NewPayload("Ana", "Av. Arequipa 123", map[string]string{"total": "42.50"})
	require.NoError(t, err)
	o, err := order.RestoreOrder(kernel.NewUUID(), kernel.NewUUID(), payload, order.SeekingCourier, nil, 0, nil)
	require.NoError(t, err)
	h.store.putOrder(o)
	return o
}

// answer records the courier's answer on the stored offer, as the courier app does.
func (h *harness) answer(t *testing.T, courierID, orderID kernel.UUID, accept bool) *offer.Offer {
	t.Helper()
	of := h.store.offer(courierID, orderID)
	require.NotNil(t, of)
	if accept {
		require.NoError(t, of.Accept())
	} else {
		require.NoError(t, of.Reject())
	}
	h.store.putOffer(of)
	return of
}

func (h *harness) pendingOfferTo(orderID kernel.UUID) *offer.Offer {
	offers := h.store.pendingOffersFor(orderID)
	if len(offers) != 1 {
		return nil
	}
	return offers[0]
}

func (h *harness) assertUnlocked(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(h.coord.Snapshot().Locked) == 0
	}, waitFor, tick)
}

func TestNewCoordinator(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newMemStore()
	sender := &mockSender{}
	selector := services.NewRoundRobinSelector()

	t.Run("should reject missing collaborators", func(t *testing.T) {
		tests := []struct {
			name string
			call func() (*Coordinator, error)
		}{
			{"uow factory", func() (*Coordinator, error) {
				return NewCoordinator(nil, sender, selector, clock, DefaultSettings(), discardLogger())
			}},
			{"sender", func() (*Coordinator, error) {
				return NewCoordinator(store, nil, selector, clock, DefaultSettings(), discardLogger())
			}},
			{"selector", func() (*Coordinator, error) {
				return NewCoordinator(store, sender, nil, clock, DefaultSettings(), discardLogger())
			}},
			{"clock", func() (*Coordinator, error) {
				return NewCoordinator(store, sender, selector, nil, DefaultSettings(), discardLogger())
			}},
			{"logger", func() (*Coordinator, error) {
				return NewCoordinator(store, sender, selector, clock, DefaultSettings(), nil)
			}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				coord, err := tt.call()

				require.ErrorIs(t, err, errs.ErrValueIsRequired)
				assert.Nil(t, coord)
			})
		}
	})

	t.Run("should reject invalid settings", func(t *testing.T) {
		settings := DefaultSettings()
		settings.AcceptanceWindow = 0

		coord, err := NewCoordinator(store, sender, selector, clock, settings, discardLogger())

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		assert.Nil(t, coord)
	})
}

func TestCoordinator_TryAssign(t *testing.T) {
	t.Run("should leave order seeking when no courier is available", func(t *testing.T) {
		h := newHarness(t)
		o := h.addSeekingOrder(t)

		made := h.coord.TryAssign(t.Context(), o.ID(), nil)

		assert.False(t, made)
		assert.Equal(t, order.SeekingCourier, h.store.order(o.ID()).Status())
		assert.Empty(t, h.store.offersFor(o.ID()))
		assert.Equal(t, uint64(0), h.selector.Cursor())
		h.assertUnlocked(t)
	})

	t.Run("should offer to the courier under the cursor", func(t *testing.T) {
		var couriers []*courier.Courier
		h := newHarness(t, withCursor(5), withSender(func(m *mockSender) {
			m.On("Send", mock.Anything, mock.MatchedBy(func(n ports.Notification) bool {
				return n.Token == "token-2" && n.Data["total"] == "42.50" && n.Data["customerName"] == "Ana"
			})).Return(nil).Once()
		}))
		for _, token := range []string{"token-0", "token-1", "token-2"} {
			couriers = append(couriers, h.addCourier(t, token))
		}
		o := h.addSeekingOrder(t)

		made := h.coord.TryAssign(t.Context(), o.ID(), nil)

		require.True(t, made)
		assert.Equal(t, uint64(6), h.selector.Cursor())

		stored := h.store.order(o.ID())
		assert.True(t, stored.IsAssignedTo(couriers[2].ID()))
		assert.Equal(t, 1, stored.AssignmentAttempts())

		made2 := h.store.offer(couriers[2].ID(), o.ID())
		require.NotNil(t, made2)
		assert.True(t, made2.IsPending())
		assert.Equal(t, o.Path(), made2.SourceOrderPath())
		assert.Equal(t, testEpoch.Add(34*time.Second), made2.ExpiresAt())

		remaining, err := h.coord.RemainingTime(t.Context(), o.ID())
		require.NoError(t, err)
		assert.Equal(t, 34, remaining)
		assert.True(t, h.coord.HasAcceptanceTimer(o.ID()))
		h.sender.AssertExpectations(t)
		h.assertUnlocked(t)
	})

	t.Run("should spread consecutive orders over all couriers", func(t *testing.T) {
		h := newHarness(t, withCursor(11))
		couriers := []*courier.Courier{h.addCourier(t, "a"), h.addCourier(t, "b"), h.addCourier(t, "c")}
		seen := make(map[kernel.UUID]int)

		for range couriers {
			o := h.addSeekingOrder(t)
			require.True(t, h.coord.TryAssign(t.Context(), o.ID(), nil))
			seen[*h.store.order(o.ID()).Courier()]++
		}

		for _, c := range couriers {
			assert.Equal(t, 1, seen[c.ID()])
		}
	})

	t.Run("should skip when an attempt is already in flight", func(t *testing.T) {
		h := newHarness(t)
		h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		require.True(t, h.coord.state.tryLock(o.ID()))

		made := h.coord.TryAssign(t.Context(), o.ID(), nil)

		assert.False(t, made)
		assert.Empty(t, h.store.offersFor(o.ID()))
		assert.True(t, h.coord.state.isLocked(o.ID()))
	})

	t.Run("should skip while cooling down", func(t *testing.T) {
		h := newHarness(t)
		h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.state.addCooldown(o.ID())

		assert.False(t, h.coord.TryAssign(t.Context(), o.ID(), nil))
		assert.Empty(t, h.store.offersFor(o.ID()))
	})

	t.Run("should release the lock on every failure", func(t *testing.T) {
		for _, op := range []string{"orders.Get", "couriers.GetAllAvailable", "offers.Add", "orders.Update", "uow.Commit"} {
			t.Run(op, func(t *testing.T) {
				h := newHarness(t)
				h.addCourier(t, "a")
				o := h.addSeekingOrder(t)
				h.store.failOn(op, errors.New("boom"))

				made := h.coord.TryAssign(t.Context(), o.ID(), nil)

				assert.False(t, made)
				assert.False(t, h.coord.state.isLocked(o.ID()))
				h.store.clearFailures()
				assert.Equal(t, order.SeekingCourier, h.store.order(o.ID()).Status())
				assert.Empty(t, h.store.offersFor(o.ID()))
				assert.False(t, h.coord.HasAcceptanceTimer(o.ID()))
			})
		}
	})

	t.Run("should forget orders that are gone or finished", func(t *testing.T) {
		h := newHarness(t)
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		require.True(t, h.coord.state.isPending(o.ID()))

		finished, err := order.RestoreOrder(o.ID(), o.StoreID(), o.Payload(), order.Rejected, nil, 0, nil)
		require.NoError(t, err)
		h.store.putOrder(finished)

		assert.False(t, h.coord.TryAssign(t.Context(), o.ID(), nil))
		assert.False(t, h.coord.state.isPending(o.ID()))
		assert.Zero(t, h.coord.Snapshot().Timers)
	})

	t.Run("should keep state of an order with an outstanding offer", func(t *testing.T) {
		h := newHarness(t)
		h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		require.NotNil(t, h.pendingOfferTo(o.ID()))

		assert.False(t, h.coord.TryAssign(t.Context(), o.ID(), nil))
		assert.True(t, h.coord.state.isPending(o.ID()))
		assert.True(t, h.coord.HasAcceptanceTimer(o.ID()))
		assert.Len(t, h.store.pendingOffersFor(o.ID()), 1)
	})

	t.Run("should succeed when the notification fails", func(t *testing.T) {
		h := newHarness(t, withSender(func(m *mockSender) {
			m.On("Send", mock.Anything, mock.Anything).Return(errors.New("push down")).Once()
		}))
		h.addCourier(t, "a")
		o := h.addSeekingOrder(t)

		assert.True(t, h.coord.TryAssign(t.Context(), o.ID(), nil))
		assert.NotNil(t, h.pendingOfferTo(o.ID()))
		h.sender.AssertExpectations(t)
	})

	t.Run("should not notify couriers without push token", func(t *testing.T) {
		h := newHarness(t, withSender(func(m *mockSender) {
			m.On("Send", mock.Anything, mock.Anything).Return(nil).Maybe()
		}))
		h.addCourier(t, "")
		o := h.addSeekingOrder(t)

		assert.True(t, h.coord.TryAssign(t.Context(), o.ID(), nil))
		h.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestCoordinator_AcceptanceTimeout(t *testing.T) {
	t.Run("should revoke and reassign excluding the silent courier", func(t *testing.T) {
		h := newHarness(t)
		first := h.addCourier(t, "a")
		second := h.addCourier(t, "b")
		o := h.addSeekingOrder(t)

		h.coord.OnOrderSeeking(t.Context(), o)
		require.NotNil(t, h.store.offer(first.ID(), o.ID()))

		h.clock.Advance(34 * time.Second)

		require.Eventually(t, func() bool {
			return h.store.offer(second.ID(), o.ID()) != nil
		}, waitFor, tick)
		assert.Nil(t, h.store.offer(first.ID(), o.ID()))
		assert.Len(t, h.store.pendingOffersFor(o.ID()), 1)

		stored := h.store.order(o.ID())
		assert.True(t, stored.IsAssignedTo(second.ID()))
		assert.Equal(t, 2, stored.AssignmentAttempts())
		h.assertUnlocked(t)

		remaining, err := h.coord.RemainingTime(t.Context(), o.ID())
		require.NoError(t, err)
		assert.Equal(t, 34, remaining)
	})

	t.Run("should hold off order events until the retry is armed", func(t *testing.T) {
		h := newHarness(t)
		silent := h.addCourier(t, "a")
		other := h.addCourier(t, "b")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		require.NotNil(t, h.store.offer(silent.ID(), o.ID()))

		offersDuringRevert := -1
		h.store.onNextCommit(func() {
			reverted := h.store.order(o.ID())
			h.coord.OnOrderSeeking(t.Context(), reverted)
			offersDuringRevert = len(h.store.offersFor(o.ID()))
		})

		h.coord.HandleAcceptanceTimeout(t.Context(), o.ID(), silent.ID())

		assert.Zero(t, offersDuringRevert)
		require.Eventually(t, func() bool {
			return h.store.offer(other.ID(), o.ID()) != nil
		}, waitFor, tick)
		assert.Nil(t, h.store.offer(silent.ID(), o.ID()))
		assert.Equal(t, 2, h.store.order(o.ID()).AssignmentAttempts())
		require.Eventually(t, func() bool {
			return !h.coord.state.inCooldown(o.ID())
		}, waitFor, tick)
		h.assertUnlocked(t)
	})

	t.Run("should fall back to the only courier", func(t *testing.T) {
		h := newHarness(t)
		only := h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)

		h.clock.Advance(34 * time.Second)

		require.Eventually(t, func() bool {
			stored := h.store.order(o.ID())
			return stored.IsAssignedTo(only.ID()) && stored.AssignmentAttempts() == 2
		}, waitFor, tick)
		assert.Len(t, h.store.pendingOffersFor(o.ID()), 1)
	})

	t.Run("should leave an accepted offer alone", func(t *testing.T) {
		h := newHarness(t)
		c := h.addCourier(t, "a")
		h.addCourier(t, "b")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)

		h.clock.Advance(time.Second)
		h.answer(t, c.ID(), o.ID(), true)
		h.clock.Advance(33 * time.Second)

		require.Eventually(t, func() bool {
			_, cached := h.coord.state.getRemaining(o.ID())
			return !cached && !h.coord.HasAcceptanceTimer(o.ID())
		}, waitFor, tick)
		stored := h.store.order(o.ID())
		assert.True(t, stored.IsAssignedTo(c.ID()))
		assert.Equal(t, 1, stored.AssignmentAttempts())
		assert.NotNil(t, h.store.offer(c.ID(), o.ID()))
	})

	t.Run("should only delete the offer when the order moved on", func(t *testing.T) {
		h := newHarness(t)
		stale := h.addCourier(t, "a")
		current := h.addCourier(t, "b")
		o := h.addSeekingOrder(t)

		staleOffer, err := offer.NewOffer(o, stale.ID(), testEpoch, 34*time.Second)
		require.NoError(t, err)
		h.store.putOffer(staleOffer)
		currentID := current.ID()
		moved, err := order.RestoreOrder(o.ID(), o.StoreID(), o.Payload(), order.Assigned, &currentID, 2, nil)
		require.NoError(t, err)
		h.store.putOrder(moved)

		h.coord.HandleAcceptanceTimeout(t.Context(), o.ID(), stale.ID())

		assert.Nil(t, h.store.offer(stale.ID(), o.ID()))
		assert.True(t, h.store.order(o.ID()).IsAssignedTo(current.ID()))
		assert.False(t, h.coord.state.hasTimer(o.ID(), purposeRetry))
	})

	t.Run("should ignore a missing offer", func(t *testing.T) {
		h := newHarness(t)
		o := h.addSeekingOrder(t)

		h.coord.HandleAcceptanceTimeout(t.Context(), o.ID(), kernel.NewUUID())

		assert.Equal(t, order.SeekingCourier, h.store.order(o.ID()).Status())
		assert.Zero(t, h.coord.Snapshot().Timers)
	})
}

func TestCoordinator_OnOfferSettled(t *testing.T) {
	t.Run("should move an accepted order to preparing once", func(t *testing.T) {
		h := newHarness(t)
		c := h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		h.clock.Advance(5 * time.Second)
		answered := h.answer(t, c.ID(), o.ID(), true)

		h.coord.OnOfferSettled(t.Context(), answered)
		h.coord.OnOfferSettled(t.Context(), answered)

		stored := h.store.order(o.ID())
		assert.Equal(t, order.Preparing, stored.Status())
		require.NotNil(t, stored.AcceptedAt())
		assert.Equal(t, testEpoch.Add(5*time.Second), *stored.AcceptedAt())
		assert.True(t, h.store.offer(c.ID(), o.ID()).IsSettled())

		snap := h.coord.Snapshot()
		assert.Empty(t, snap.Pending)
		assert.Zero(t, snap.Timers)
	})

	t.Run("should cool down and reassign after a rejection", func(t *testing.T) {
		h := newHarness(t)
		first := h.addCourier(t, "a")
		second := h.addCourier(t, "b")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		answered := h.answer(t, first.ID(), o.ID(), false)

		h.coord.OnOfferSettled(t.Context(), answered)

		assert.Nil(t, h.store.offer(first.ID(), o.ID()))
		assert.Equal(t, order.SeekingCourier, h.store.order(o.ID()).Status())
		assert.Equal(t, 1, h.store.courier(first.ID()).RejectedCount())
		assert.True(t, h.coord.state.inCooldown(o.ID()))
		assert.False(t, h.coord.HasAcceptanceTimer(o.ID()))
		assert.True(t, h.coord.state.isPending(o.ID()))
		assert.False(t, h.coord.TryAssign(t.Context(), o.ID(), nil))

		h.clock.Advance(time.Second)
		assert.True(t, h.coord.state.inCooldown(o.ID()))
		assert.Empty(t, h.store.offersFor(o.ID()))

		h.clock.Advance(time.Second)

		require.Eventually(t, func() bool {
			return h.store.offer(second.ID(), o.ID()) != nil
		}, waitFor, tick)
		assert.False(t, h.coord.state.inCooldown(o.ID()))
		assert.True(t, h.store.order(o.ID()).IsAssignedTo(second.ID()))
		h.assertUnlocked(t)
	})

	t.Run("should count a rejection exactly once", func(t *testing.T) {
		h := newHarness(t)
		c := h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		answered := h.answer(t, c.ID(), o.ID(), false)

		h.coord.OnOfferSettled(t.Context(), answered)
		h.coord.OnOfferSettled(t.Context(), answered)

		assert.Equal(t, 1, h.store.courier(c.ID()).RejectedCount())
	})

	t.Run("should not retry when the order is no longer seeking", func(t *testing.T) {
		h := newHarness(t)
		c := h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		answered := h.answer(t, c.ID(), o.ID(), false)

		otherID := kernel.NewUUID()
		moved, err := order.RestoreOrder(o.ID(), o.StoreID(), o.Payload(), order.Preparing, &otherID, 1, nil)
		require.NoError(t, err)
		h.store.putOrder(moved)

		h.coord.OnOfferSettled(t.Context(), answered)

		assert.Equal(t, order.Preparing, h.store.order(o.ID()).Status())
		assert.False(t, h.coord.state.inCooldown(o.ID()))
		assert.False(t, h.coord.state.hasTimer(o.ID(), purposeRetry))
	})

	t.Run("should ignore unanswered offers", func(t *testing.T) {
		h := newHarness(t)
		c := h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)

		h.coord.OnOfferSettled(t.Context(), h.store.offer(c.ID(), o.ID()))

		assert.True(t, h.store.order(o.ID()).IsAssignedTo(c.ID()))
		assert.True(t, h.coord.HasAcceptanceTimer(o.ID()))
	})
}

func TestCoordinator_SeekingWindow(t *testing.T) {
	t.Run("should reject an order nobody took", func(t *testing.T) {
		h := newHarness(t)
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)

		h.clock.Advance(7 * time.Minute)

		require.Eventually(t, func() bool {
			return h.store.order(o.ID()).Status() == order.Rejected
		}, waitFor, tick)
		require.Eventually(t, func() bool {
			snap := h.coord.Snapshot()
			return len(snap.Pending) == 0 && snap.Timers == 0
		}, waitFor, tick)
	})

	t.Run("should withdraw an outstanding offer", func(t *testing.T) {
		h := newHarness(t, withSettings(func(s *Settings) {
			s.AcceptanceWindow = 10 * time.Minute
		}))
		c := h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		require.NotNil(t, h.store.offer(c.ID(), o.ID()))

		h.clock.Advance(7 * time.Minute)

		require.Eventually(t, func() bool {
			return h.store.order(o.ID()).Status() == order.Rejected
		}, waitFor, tick)
		assert.Nil(t, h.store.offer(c.ID(), o.ID()))
		require.Eventually(t, func() bool {
			return h.coord.Snapshot().Timers == 0
		}, waitFor, tick)
	})

	t.Run("should not notify an offer withdrawn during the attempt", func(t *testing.T) {
		h := newHarness(t)
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		c := h.addCourier(t, "a")

		h.store.onNextCommit(func() {
			h.coord.expireSeeking(t.Context(), o.ID())
		})

		made := h.coord.TryAssign(t.Context(), o.ID(), nil)

		assert.False(t, made)
		assert.Equal(t, order.Rejected, h.store.order(o.ID()).Status())
		assert.Nil(t, h.store.offer(c.ID(), o.ID()))
		h.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		assert.False(t, h.coord.HasAcceptanceTimer(o.ID()))
		_, cached := h.coord.state.getRemaining(o.ID())
		assert.False(t, cached)
		assert.Empty(t, h.coord.Snapshot().Pending)
	})

	t.Run("should keep running from the first event", func(t *testing.T) {
		h := newHarness(t)
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)

		h.clock.Advance(5 * time.Minute)
		h.coord.OnOrderSeeking(t.Context(), o)
		h.clock.Advance(2 * time.Minute)

		require.Eventually(t, func() bool {
			return h.store.order(o.ID()).Status() == order.Rejected
		}, waitFor, tick)
	})
}

func TestCoordinator_OnOrderSeeking(t *testing.T) {
	t.Run("should ignore orders in other statuses", func(t *testing.T) {
		h := newHarness(t)
		o := h.addSeekingOrder(t)
		created, err := order.NewOrder(o.ID(), o.StoreID(), o.Payload())
		require.NoError(t, err)

		h.coord.OnOrderSeeking(t.Context(), created)

		assert.False(t, h.coord.state.isPending(o.ID()))
	})

	t.Run("should make one offer for repeated events", func(t *testing.T) {
		h := newHarness(t)
		h.addCourier(t, "a")
		h.addCourier(t, "b")
		o := h.addSeekingOrder(t)

		h.coord.OnOrderSeeking(t.Context(), o)
		h.coord.OnOrderSeeking(t.Context(), o)

		assert.Len(t, h.store.offersFor(o.ID()), 1)
		assert.Equal(t, 2, h.coord.Snapshot().Timers)
	})

	t.Run("should not race a scheduled retry", func(t *testing.T) {
		h := newHarness(t)
		h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.scheduleRetry(o.ID(), time.Minute, nil)

		h.coord.OnOrderSeeking(t.Context(), o)

		assert.Empty(t, h.store.offersFor(o.ID()))
		assert.True(t, h.coord.state.isPending(o.ID()))
	})
}

func TestCoordinator_OnCourierAvailable(t *testing.T) {
	t.Run("should coalesce events into one scan", func(t *testing.T) {
		h := newHarness(t)
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		c := h.addCourier(t, "a")

		for range 5 {
			h.coord.OnCourierAvailable(t.Context(), c.ID())
		}
		h.clock.Advance(400 * time.Millisecond)
		assert.Empty(t, h.store.offersFor(o.ID()))

		h.clock.Advance(100 * time.Millisecond)

		require.Eventually(t, func() bool {
			return h.store.offer(c.ID(), o.ID()) != nil
		}, waitFor, tick)
		assert.Equal(t, uint64(1), h.selector.Cursor())
		h.assertUnlocked(t)
	})

	t.Run("should leave orders alone in opportunistic mode", func(t *testing.T) {
		h := newHarness(t, withSettings(func(s *Settings) {
			s.AvailabilityScan = ScanOpportunistic
		}))
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		c := h.addCourier(t, "a")

		h.coord.OnCourierAvailable(t.Context(), c.ID())
		h.clock.Advance(time.Second)

		assert.Never(t, func() bool {
			return len(h.store.offersFor(o.ID())) > 0
		}, 100*time.Millisecond, tick)
	})
}

func TestCoordinator_RescanPending(t *testing.T) {
	h := newHarness(t)
	seeking := h.addSeekingOrder(t)
	cooling := h.addSeekingOrder(t)
	gone := h.addSeekingOrder(t)
	for _, o := range []*order.Order{seeking, cooling, gone} {
		h.coord.OnOrderSeeking(t.Context(), o)
	}
	c := h.addCourier(t, "a")
	h.coord.state.addCooldown(cooling.ID())
	finished, err := order.RestoreOrder(gone.ID(), gone.StoreID(), gone.Payload(), order.Rejected, nil, 0, nil)
	require.NoError(t, err)
	h.store.putOrder(finished)

	scheduled := h.coord.RescanPending(t.Context())

	assert.Equal(t, 1, scheduled)
	require.Eventually(t, func() bool {
		return h.store.offer(c.ID(), seeking.ID()) != nil
	}, waitFor, tick)
	assert.Empty(t, h.store.offersFor(cooling.ID()))
	assert.False(t, h.coord.state.isPending(gone.ID()))
}

func TestCoordinator_RemainingTime(t *testing.T) {
	t.Run("should count down the acceptance window", func(t *testing.T) {
		h := newHarness(t)
		h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)

		h.clock.Advance(10*time.Second + 600*time.Millisecond)

		remaining, err := h.coord.RemainingTime(t.Context(), o.ID())
		require.NoError(t, err)
		assert.Equal(t, 23, remaining)
	})

	t.Run("should report the seeking window without an offer", func(t *testing.T) {
		h := newHarness(t)
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)

		h.clock.Advance(time.Minute)

		remaining, err := h.coord.RemainingTime(t.Context(), o.ID())
		require.NoError(t, err)
		assert.Equal(t, 360, remaining)
	})

	t.Run("should fall back to the stored offer", func(t *testing.T) {
		h := newHarness(t)
		h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)

		restarted, err := NewCoordinator(h.store, h.sender, services.NewRoundRobinSelector(), h.clock,
			DefaultSettings(), discardLogger())
		require.NoError(t, err)
		t.Cleanup(restarted.Close)
		h.clock.Advance(4 * time.Second)

		remaining, err := restarted.RemainingTime(t.Context(), o.ID())
		require.NoError(t, err)
		assert.Equal(t, 30, remaining)
		_, cached := restarted.state.getRemaining(o.ID())
		assert.True(t, cached)
	})

	t.Run("should never go negative", func(t *testing.T) {
		h := newHarness(t)
		c := h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		expired, err := offer.NewOffer(o, c.ID(), testEpoch.Add(-time.Minute), 34*time.Second)
		require.NoError(t, err)
		h.store.putOffer(expired)

		remaining, err := h.coord.RemainingTime(t.Context(), o.ID())
		require.NoError(t, err)
		assert.Zero(t, remaining)
	})

	t.Run("should report accepted orders as not found", func(t *testing.T) {
		h := newHarness(t)
		c := h.addCourier(t, "a")
		o := h.addSeekingOrder(t)
		h.coord.OnOrderSeeking(t.Context(), o)
		h.clock.Advance(time.Second)
		answered := h.answer(t, c.ID(), o.ID(), true)

		h.coord.OnOfferSettled(t.Context(), answered)

		require.Equal(t, order.Preparing, h.store.order(o.ID()).Status())
		_, err := h.coord.RemainingTime(t.Context(), o.ID())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
		_, cached := h.coord.state.getRemaining(o.ID())
		assert.False(t, cached)
	})

	t.Run("should report unknown orders as not found", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.coord.RemainingTime(t.Context(), kernel.NewUUID())

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestCoordinator_Close(t *testing.T) {
	h := newHarness(t)
	h.addCourier(t, "a")
	o := h.addSeekingOrder(t)
	h.coord.OnOrderSeeking(t.Context(), o)
	require.Equal(t, 2, h.coord.Snapshot().Timers)

	h.coord.Close()
	h.clock.Advance(10 * time.Minute)

	assert.Zero(t, h.coord.Snapshot().Timers)
	assert.Never(t, func() bool {
		return h.store.order(o.ID()).Status() != order.Assigned
	}, 100*time.Millisecond, tick)
}
