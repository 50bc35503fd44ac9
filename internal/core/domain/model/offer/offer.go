package offer

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrOfferIsNotConstructed is returned when an Offer was not created through NewOffer
	// or RestoreOffer.
	ErrOfferIsNotConstructed = errors.New("Offer must be created via NewOffer constructor")
	// ErrOfferIsNotPending is returned when a courier answers an offer that was already answered.
	ErrOfferIsNotPending = errs.NewValueIsInvalidError("offer was already answered")
	// ErrOfferIsNotAnswered is returned when settling an offer nobody answered.
	ErrOfferIsNotAnswered = errs.NewValueIsInvalidError("offer has no answer to settle")
	// ErrWindowIsInvalid is returned for a non-positive acceptance window.
	ErrWindowIsInvalid = errs.NewValueIsInvalidError("acceptance window must be positive")
	// ErrSourceOrderPathIsRequired is returned when an offer does not point back to its order.
	ErrSourceOrderPathIsRequired = errs.NewValueIsRequiredError("sourceOrderPath")
)

// Offer is one courier's pending or settled response to a proposed order assignment.
// It is keyed by (courier, order) and stored under the courier.
//
// Offer follows these invariants:
//   - accepted is nil until the courier answers, then true or false forever
//   - settled can only be set once an answer exists
//   - expiresAt is never before createdAt
type Offer struct {
	orderID         kernel.UUID
	courierID       kernel.UUID
	sourceOrderPath string
	payload         order.Payload
	accepted        *bool
	createdAt       time.Time
	expiresAt       time.Time
	settled         bool
	isConstructed   bool
}

// NewOffer creates an unanswered offer that expires after the acceptance window.
//
// Parameters:
//   - o: The order being offered; its path and payload are copied
//   - courierID: The courier receiving the offer
//   - now: Creation instant
//   - window: Acceptance window, must be positive
//
// Returns:
//   - *Offer: The new offer with accepted = nil
//   - error: Joined validation errors otherwise
//
// Example:
//
//	of, err := offer.NewOffer(o, courierID, clock.Now(), 34*time.Second)
//	if err != nil {
//	    return err
//	}
func NewOffer(o *order.Order, courierID kernel.UUID, now time.Time, window time.Duration) (*Offer, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if window <= 0 {
		return nil, ErrWindowIsInvalid
	}

	offer := &Offer{
		payload:       o.Payload(),
		createdAt:     now,
		expiresAt:     now.Add(window),
		isConstructed: true,
	}

	if err := errors.Join(
		offer.setOrderID(o.ID()),
		offer.setCourierID(courierID),
		offer.setSourceOrderPath(o.Path()),
	); err != nil {
		return nil, err
	}

	return offer, nil
}

// RestoreOffer reconstructs an Offer from the assignment record store.
func RestoreOffer(
	orderID kernel.UUID,
	courierID kernel.UUID,
	sourceOrderPath string,
	payload order.Payload,
	accepted *bool,
	createdAt time.Time,
	expiresAt time.Time,
	settled bool,
) (*Offer, error) {
	offer := &Offer{
		payload:       payload.Clone(),
		createdAt:     createdAt,
		expiresAt:     expiresAt,
		isConstructed: true,
	}

	if err := errors.Join(
		offer.setOrderID(orderID),
		offer.setCourierID(courierID),
		offer.setSourceOrderPath(sourceOrderPath),
		offer.setAnswer(accepted, settled),
		offer.validateWindow(),
	); err != nil {
		return nil, err
	}

	return offer, nil
}

// Validate ensures the Offer instance was properly constructed.
func (o *Offer) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOfferIsNotConstructed
	}
	return nil
}

// OrderID returns the identifier of the offered order.
func (o *Offer) OrderID() kernel.UUID {
	return o.orderID
}

// CourierID returns the courier the offer was made to.
func (o *Offer) CourierID() kernel.UUID {
	return o.courierID
}

// SourceOrderPath returns the storage path of the offered order.
func (o *Offer) SourceOrderPath() string {
	return o.sourceOrderPath
}

// Payload returns a copy of the order payload shown to the courier.
func (o *Offer) Payload() order.Payload {
	return o.payload.Clone()
}

// Accepted returns the courier's answer: nil while pending.
func (o *Offer) Accepted() *bool {
	if o.accepted == nil {
		return nil
	}
	answer := *o.accepted
	return &answer
}

// CreatedAt returns when the offer was made.
func (o *Offer) CreatedAt() time.Time {
	return o.createdAt
}

// ExpiresAt returns when the acceptance window closes.
func (o *Offer) ExpiresAt() time.Time {
	return o.expiresAt
}

// IsSettled reports whether the answer has been processed by dispatch.
func (o *Offer) IsSettled() bool {
	return o.settled
}

// IsPending reports whether the courier has not answered yet.
func (o *Offer) IsPending() bool {
	return o.accepted == nil
}

// IsAccepted reports whether the courier accepted the offer.
func (o *Offer) IsAccepted() bool {
	return o.accepted != nil && *o.accepted
}

// IsRejected reports whether the courier turned the offer down.
func (o *Offer) IsRejected() bool {
	return o.accepted != nil && !*o.accepted
}

// IsExpired reports whether the acceptance window closed at or before now.
func (o *Offer) IsExpired(now time.Time) bool {
	return !now.Before(o.expiresAt)
}

// RemainingSeconds returns the whole seconds left before expiry, never negative.
//
// Example:
//
//	// created at T with a 34s window, asked at T+10.6s
//	of.RemainingSeconds(now) // 23
func (o *Offer) RemainingSeconds(now time.Time) int {
	return RemainingSeconds(o.expiresAt, now)
}

// Accept records a positive answer.
//
// Returns:
//   - ErrOfferIsNotPending if the courier already answered
func (o *Offer) Accept() error {
	return o.answer(true)
}

// Reject records a negative answer.
//
// Returns:
//   - ErrOfferIsNotPending if the courier already answered
func (o *Offer) Reject() error {
	return o.answer(false)
}

// MarkSettled flags the answer as processed so it is never handled twice.
func (o *Offer) MarkSettled() error {
	if o.accepted == nil {
		return ErrOfferIsNotAnswered
	}
	o.settled = true
	return nil
}

// RemainingSeconds computes max(0, floor((expiresAt - now) / 1s)).
func RemainingSeconds(expiresAt, now time.Time) int {
	left := expiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

func (o *Offer) answer(accepted bool) error {
	if o.accepted != nil {
		return ErrOfferIsNotPending
	}
	o.accepted = &accepted
	return nil
}

func (o *Offer) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.orderID = id
	return nil
}

func (o *Offer) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.courierID = id
	return nil
}

func (o *Offer) setSourceOrderPath(path string) error {
	if path == "" {
		return ErrSourceOrderPathIsRequired
	}
	o.sourceOrderPath = path
	return nil
}

func (o *Offer) setAnswer(accepted *bool, settled bool) error {
	if settled && accepted == nil {
		return ErrOfferIsNotAnswered
	}
	if accepted != nil {
		answer := *accepted
		o.accepted = &answer
	}
	o.settled = settled
	return nil
}

func (o *Offer) validateWindow() error {
	if o.expiresAt.Before(o.createdAt) {
		return errs.NewValueIsInvalidErrorWithCause("expiresAt",
			fmt.Errorf("%s is before creation at %s", o.expiresAt, o.createdAt))
	}
	return nil
}
