// Package guard provides the ConstructorGuard used by aggregates, commands and queries
// to tell values built by their constructor apart from zero values.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller passes a nil error.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard marks a value as created through its designated constructor.
// Embed it as a field and check it from the owner's Validate method:
//
//	var ErrOfferNotConstructed = errors.New("Offer must be created via NewOffer")
//
//	type Offer struct {
//	    // ...
//	    guard guard.ConstructorGuard
//	}
//
//	func (o *Offer) Validate() error {
//	    return o.guard.Validate(ErrOfferNotConstructed)
//	}
//
// The zero value is "not constructed". The guard holds no pointers and is safe to copy
// and to read from many goroutines.
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard in the constructed state.
// Call it only from the constructor of the owning type.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for a constructed guard.
// For a zero-value guard it returns validationError, or ErrDefaultConstructorGuard
// when validationError is nil.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
