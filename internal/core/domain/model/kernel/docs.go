// Package kernel provides the value objects shared by the order, courier and offer
// aggregates. Today that is UUID, the identifier of orders, stores and couriers.
//
// Kernel values are immutable and safe for concurrent use; their zero values are
// invalid and rejected by Validate.
package kernel
