package transport

import (
	"encoding/json"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
)

// Handler receives the raw JSON payload of one push notification. Handlers
// run synchronously on the read loop and must return quickly; anything
// slow belongs behind a channel.
type Handler func(payload []byte)

// envelope is the wire frame around every hub message.
type envelope struct {
	Type string          `json:"type"` // "bid_placed", "buy_now", "subscribed", "error"
	Msg  json.RawMessage `json:"msg"`
}

// command is a client-to-hub request.
type command struct {
	Cmd       string `json:"cmd"` // "subscribe" or "unsubscribe"
	AuctionID string `json:"auctionId"`
}

// HubConfig configures the real-time hub client.
type HubConfig struct {
	URL               string        // Hub URL (e.g. wss://hub.agrimarket.example/live)
	APIKey            string        // Bearer token, empty for anonymous
	WriteTimeout      time.Duration // Write deadline for sends
	ReconnectBaseWait time.Duration // Base wait before reconnecting
	ReconnectMaxWait  time.Duration // Cap on reconnect wait
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout:      5 * time.Second,
		ReconnectBaseWait: time.Second,
		ReconnectMaxWait:  60 * time.Second,
	}
}
