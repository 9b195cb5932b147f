// Package observe ties one auction's ingestion, store and reconciliation
// together behind a single-threaded event loop.
//
// An Observation is created when the client starts watching an auction and
// discarded when it stops. Real-time handlers, optimistic write receipts
// and reconcile attempts are all messages on one queue, so the store is
// only ever mutated from the loop goroutine. Retry timers carry a
// generation tag; stopping the observation or starting a newer reconcile
// chain turns pending timers into no-ops.
package observe
