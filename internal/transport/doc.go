// Package transport implements the real-time hub client.
//
// The hub delivers bid-placed and buy-now push notifications over a
// persistent WebSocket connection. The client reconnects with capped
// backoff and replays subscriptions; a coverage gap during a disconnect is
// acceptable because the reconciliation policy recovers missed events from
// the authoritative bid log. The engine is protocol-agnostic: anything
// able to invoke the registered handlers (SSE, long polling) could replace
// this package.
package transport
