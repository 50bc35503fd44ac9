// Package offer provides the Offer entity: a single courier's pending or settled
// response to a proposed order assignment.
//
// Offers live in the assignment record store under the courier they were made to.
// Dispatch creates them, couriers answer them (accept or reject) and dispatch
// settles the answer exactly once. Unanswered offers are deleted when their
// acceptance window closes; accepted offers are kept as a terminal record.
package offer
