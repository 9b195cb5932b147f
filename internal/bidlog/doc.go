// Package bidlog implements the per-auction bid log store and its read-side
// projection.
//
// The store holds the deduplicated, time-ordered set of bid events for
// exactly one auction. Events from all three channels (optimistic,
// real-time, authoritative) converge here; the dedup/supersede rules
// restore a consistent view regardless of delivery order. The store is
// exclusively owned by one observation loop and performs no I/O.
package bidlog
