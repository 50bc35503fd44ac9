package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/pkg/errs"
)

// ScanMode selects how a courier becoming available is turned into assignment attempts.
type ScanMode int

const (
	// ScanAllPending retries every pending order that is neither locked nor cooling down.
	ScanAllPending ScanMode = iota + 1
	// ScanOpportunistic does nothing on availability; the next natural attempt
	// (retry, rescan job, new order) sees the courier in the registry.
	ScanOpportunistic
)

// String returns the configuration name of the mode.
func (m ScanMode) String() string {
	switch m {
	case ScanAllPending:
		return "all"
	case ScanOpportunistic:
		return "opportunistic"
	default:
		return "unknown"
	}
}

// ParseScanMode parses "all" or "opportunistic"; the empty string yields ScanAllPending.
func ParseScanMode(s string) (ScanMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ScanAllPending, nil
	case "opportunistic":
		return ScanOpportunistic, nil
	default:
		return 0, errs.NewValueIsInvalidErrorWithCause("availabilityScan",
			fmt.Errorf("%q is not a known scan mode", s))
	}
}

// Settings are the timing and eligibility parameters of the coordinator.
type Settings struct {
	// AcceptanceWindow is how long a courier has to answer an offer.
	AcceptanceWindow time.Duration
	// SeekingWindow is how long an order may seek a courier before it is given up on.
	SeekingWindow time.Duration
	// RejectionCooldown is the pause between an explicit rejection and the next offer.
	RejectionCooldown time.Duration
	// AvailabilityDebounce coalesces bursts of courier availability events into one scan.
	AvailabilityDebounce time.Duration
	// AvailabilityScan selects the reaction to courier availability.
	AvailabilityScan ScanMode
	// RequireActiveCourier demands active = true in addition to available = true.
	RequireActiveCourier bool
}

// DefaultSettings returns the production defaults.
func DefaultSettings() Settings {
	return Settings{
		AcceptanceWindow:     34 * time.Second,
		SeekingWindow:        7 * time.Minute,
		RejectionCooldown:    2 * time.Second,
		AvailabilityDebounce: 500 * time.Millisecond,
		AvailabilityScan:     ScanAllPending,
		RequireActiveCourier: true,
	}
}

// Validate checks that every window is usable.
func (s Settings) Validate() error {
	var problems []error
	if s.AcceptanceWindow <= 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("acceptanceWindow", s.AcceptanceWindow, "1ns", "unbounded"))
	}
	if s.SeekingWindow <= 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("seekingWindow", s.SeekingWindow, "1ns", "unbounded"))
	}
	if s.RejectionCooldown < 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("rejectionCooldown", s.RejectionCooldown, 0, "unbounded"))
	}
	if s.AvailabilityDebounce < 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("availabilityDebounce", s.AvailabilityDebounce, 0, "unbounded"))
	}
	if s.AvailabilityScan != ScanAllPending && s.AvailabilityScan != ScanOpportunistic {
		problems = append(problems, errs.NewValueIsInvalidError("availabilityScan"))
	}
	return errors.Join(problems...)
}
