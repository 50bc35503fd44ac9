// Package services provides domain services that work across aggregates of the
// dispatch domain and do not belong to a single one of them.
//
// The package includes:
//   - RoundRobinSelector: picks the next courier from a registry snapshot so that
//     offers are spread evenly over the available couriers
package services
