// Package order provides the Order aggregate as seen by the dispatch service.
//
// The package includes:
//   - Order: identity (order and store), payload, courier reference and assignment counters
//   - Status: the state machine Created -> SeekingCourier -> Assigned -> Preparing,
//     with SeekingCourier -> Rejected when no courier accepts in time
//   - Payload: the customer-facing data copied into every offer
//
// Key business rules:
//   - At most one courier is referenced, and only while Assigned or Preparing
//   - Offers are only made from SeekingCourier; reassignment always passes through it
//   - Only a SeekingCourier order can be given up on (Rejected)
package order
