// Package model defines shared data types for the live bid reconciliation
// engine.
//
// Conventions:
//   - Amounts: decimal.Decimal (exact money arithmetic)
//   - Timestamps: time.Time, ISO-8601 millisecond precision on the wire
//   - IDs: opaque strings from the marketplace backend
package model
