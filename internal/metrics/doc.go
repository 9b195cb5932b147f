// Package metrics provides Prometheus counters for the reconciliation
// engine.
//
// Key metrics:
//   - Stale-fetch and retry-exhaustion counts (read-after-write lag)
//   - Optimistic-superseded count (placeholders confirmed by the server)
//   - Malformed and wrong-auction drop counts
//   - Archive writer throughput and errors
package metrics
