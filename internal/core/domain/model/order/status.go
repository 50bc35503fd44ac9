package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of an order as seen by dispatch.
//
// State transitions:
//
//	Created ──> SeekingCourier ──> Assigned ──> Preparing
//	               ▲    │   │          │
//	               │    │   └──────────┼──────> Preparing (late confirmation)
//	               │    └──> Rejected  │
//	               └───────────────────┘
//	          (revert on acceptance timeout or rejection)
//
// Rejected orders may ask for a courier again, which moves them back to SeekingCourier.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Created is the status of an order that has not asked for a courier yet.
	Created

	// SeekingCourier marks an order waiting for a courier. Only orders entering this
	// status are picked up by the dispatch coordinator.
	SeekingCourier

	// Assigned indicates an outstanding offer to one courier.
	Assigned

	// Preparing indicates a courier accepted the order. Dispatch is done with it.
	Preparing

	// Rejected indicates nobody accepted the order within the seeking window.
	Rejected
)

// getStatusStrings maps every status to its persisted and displayed name.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:        "unknown",
		Created:        "created",
		SeekingCourier: "seeking_courier",
		Assigned:       "assigned",
		Preparing:      "preparing",
		Rejected:       "rejected",
	}
}

// Validate checks if the Status value is one of the known, non-Unknown statuses.
//
// Returns:
//   - nil if the status is valid
//   - error with details if the status is invalid
func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the snake_case name of the status ("seeking_courier", ...).
// Invalid values render as "unknown".
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// ParseStatus converts a persisted name back into a Status.
//
// Example:
//
//	status, err := order.ParseStatus("seeking_courier")
//	// status == order.SeekingCourier
func ParseStatus(name string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == name && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", name))
}

// IsTerminal reports whether dispatch has nothing left to do for the order.
// Preparing and Rejected are terminal; an order rejected for lack of couriers
// can still be put back into SeekingCourier explicitly.
func (s Status) IsTerminal() bool {
	return s == Preparing || s == Rejected
}

// SeekCourier transitions the status to SeekingCourier.
//
// Valid transitions:
//   - Created -> SeekingCourier (order asks for a courier)
//   - Rejected -> SeekingCourier (order asks again after the seeking window expired)
//   - Assigned -> SeekingCourier (offer timed out or was rejected)
//
// Returns:
//   - (SeekingCourier, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) SeekCourier() (Status, error) {
	if s != Created && s != Rejected && s != Assigned {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to seek a courier", s.String()),
		)
	}
	return SeekingCourier, nil
}

// ValidateAssign checks that an offer may be created for the order.
// Only SeekingCourier orders are assignable; reassignment goes through
// SeekingCourier first so that at most one offer is outstanding.
func (s Status) ValidateAssign() error {
	if s != SeekingCourier {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to assign", s.String()),
		)
	}
	return nil
}

// Assign transitions SeekingCourier -> Assigned.
func (s Status) Assign() (Status, error) {
	if err := s.ValidateAssign(); err != nil {
		return 0, err
	}
	return Assigned, nil
}

// Accept transitions the status to Preparing when a courier confirms the order.
//
// Valid transitions:
//   - Assigned -> Preparing (the offered courier accepted)
//   - SeekingCourier -> Preparing (a confirmation that raced with a revert)
//
// Invalid transitions:
//   - Created, Preparing, Rejected -> Preparing
func (s Status) Accept() (Status, error) {
	if s != Assigned && s != SeekingCourier {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to accept", s.String()),
		)
	}
	return Preparing, nil
}

// Reject transitions SeekingCourier -> Rejected when the seeking window expires.
func (s Status) Reject() (Status, error) {
	if s != SeekingCourier {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to reject", s.String()),
		)
	}
	return Rejected, nil
}

// ValidateCanHaveCourier validates the consistency between status and courier assignment.
//
// Business Rules:
//   - Assigned and Preparing orders must have a courier
//   - Created, SeekingCourier and Rejected orders must not have a courier
func (s Status) ValidateCanHaveCourier(courier bool) error {
	needsCourier := s == Assigned || s == Preparing
	if courier && !needsCourier {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have a courier", s.String()),
		)
	}
	if !courier && needsCourier {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have no courier", s.String()),
		)
	}
	return nil
}
