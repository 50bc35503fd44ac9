// Package courier provides the Courier aggregate: a delivery courier as registered
// in the courier registry.
//
// Dispatch only reads couriers, with one exception: it counts rejected offers.
// Availability, activity and the push token are set by the courier's app.
//
// Key business rules:
//   - A courier has a valid identifier and a non-empty name
//   - A courier is eligible for offers when available, and also active when the
//     deployment requires it
//   - The rejection counter only grows
package courier
