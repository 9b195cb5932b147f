// Package reconcile implements the reconciliation policy: the state
// machine that decides, per fetch attempt, whether to merge an
// authoritative bid-log batch into the store or to schedule a bounded
// retry against read-after-write lag.
//
// Real-time events are the primary update channel; authoritative fetches
// exist to replace optimistic placeholders and to recover from missed
// real-time events. The policy never blocks callers on fetch completion
// and never regresses the price due to a stale read.
package reconcile
