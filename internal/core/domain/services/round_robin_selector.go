package services

import (
	"errors"
	"slices"
	"sync"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// ErrCourierNotFound is returned when the registry snapshot holds no courier to offer the order to.
var ErrCourierNotFound = errors.New("courier not found")

// RoundRobinSelector is a domain service that chooses the courier for the next offer.
// It owns a cursor that only ever grows for the lifetime of the process; the courier at
// position cursor mod len(snapshot) is selected and the cursor is advanced.
//
// Business rules:
//   - The snapshot order is the registry's order, no tie-break is imposed
//   - A courier to exclude (the one that just timed out or rejected) is skipped
//     unless it is the only courier available
//   - Fairness holds in aggregate: N consecutive selections over a stable snapshot
//     of N couriers pick every courier exactly once
//
// Example usage:
//
//	selector := services.NewRoundRobinSelector()
//	chosen, err := selector.Select(couriers, &timedOutCourierID)
//	if errors.Is(err, services.ErrCourierNotFound) {
//	    // order keeps seeking, retried on the next trigger
//	    return
//	}
//
// RoundRobinSelector is safe for concurrent use.
type RoundRobinSelector struct {
	mu     sync.Mutex
	cursor uint64
}

// NewRoundRobinSelector creates a selector with the cursor at zero.
func NewRoundRobinSelector() *RoundRobinSelector {
	return &RoundRobinSelector{}
}

// NewRoundRobinSelectorAt creates a selector starting at the given cursor.
func NewRoundRobinSelectorAt(cursor uint64) *RoundRobinSelector {
	return &RoundRobinSelector{cursor: cursor}
}

// Select picks the next courier from the snapshot.
//
// Parameters:
//   - couriers: Registry snapshot of eligible couriers
//   - exclude: Optional courier to skip when another one is available
//
// Returns:
//   - *courier.Courier: The selected courier
//   - error: ErrCourierNotFound when the snapshot is empty, or a courier validation error
func (s *RoundRobinSelector) Select(couriers []*courier.Courier, exclude *kernel.UUID) (*courier.Courier, error) {
	for _, c := range couriers {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	candidates := withoutExcluded(couriers, exclude)
	if len(candidates) == 0 {
		return nil, ErrCourierNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chosen := candidates[s.cursor%uint64(len(candidates))]
	s.cursor++
	return chosen, nil
}

// Cursor returns the current cursor value.
func (s *RoundRobinSelector) Cursor() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func withoutExcluded(couriers []*courier.Courier, exclude *kernel.UUID) []*courier.Courier {
	if exclude == nil {
		return couriers
	}

	rest := slices.DeleteFunc(slices.Clone(couriers), func(c *courier.Courier) bool {
		return c.ID().IsEqual(*exclude)
	})
	if len(rest) == 0 {
		return couriers
	}
	return rest
}
