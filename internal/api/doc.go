// Package api implements the marketplace REST API client.
//
// The client covers the three request/response contracts the engine
// consumes: auction metadata, the authoritative bid-log fetch, and the
// synchronous bid/buy-now write endpoints. Transport-level failures are
// retried with exponential backoff and jitter; writes are never retried.
package api
