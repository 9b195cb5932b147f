// Package archive persists confirmed bid events to PostgreSQL.
//
// The writer batches rows and inserts with ON CONFLICT DO NOTHING on the
// event dedup key, so redelivery across reconnects and reconcile fetches
// is harmless. Append-only semantics: rows are never updated. Optimistic
// placeholders never reach the archive; only server-sourced events do.
package archive
