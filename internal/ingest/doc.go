// Package ingest implements the event ingestion pipeline.
//
// The pipeline converts the three external input shapes into the uniform
// BidEvent form:
//   - real-time push payloads (bid-placed, buy-now)
//   - optimistic write receipts from the synchronous bid endpoint
//   - authoritative bid-log entries with embedded JSON snapshots
//
// Wrong-auction events are filtered here; malformed entries are dropped
// individually and never fail a batch.
package ingest
