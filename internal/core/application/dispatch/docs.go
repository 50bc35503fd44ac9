// Package dispatch implements the order dispatch coordinator: the in-memory state
// machine that matches orders seeking a courier with available couriers.
//
// The Coordinator keeps, for the lifetime of the process:
//   - the pending orders and when they started seeking
//   - one assignment lock per order; an order is locked for the whole attempt that
//     reads the registry, writes the offer and arms its timer
//   - at most one timer per order and purpose (acceptance, seeking, retry)
//   - the cached expiry answering remaining-time queries
//   - the cooldown set that pauses reassignment right after a rejection
//
// Every retry (acceptance timeout, rejection, availability scan, periodic rescan)
// goes through a single scheduleRetry primitive. Handlers never return errors: store
// failures are logged and the order waits for the next trigger.
package dispatch
