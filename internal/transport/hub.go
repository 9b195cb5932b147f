package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub maintains the persistent connection to the marketplace's real-time
// hub and dispatches push notifications to registered handlers. One hub is
// shared by all observed auctions; per-auction filtering happens in the
// ingestion pipeline, so every handler sees every event.
type Hub struct {
	cfg    HubConfig
	logger *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	subs      map[string]struct{}

	handlerMu sync.RWMutex
	bidPlaced []Handler
	buyNow    []Handler

	writeMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub creates a hub client.
func NewHub(cfg HubConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultHubConfig().WriteTimeout
	}
	if cfg.ReconnectBaseWait == 0 {
		cfg.ReconnectBaseWait = DefaultHubConfig().ReconnectBaseWait
	}
	if cfg.ReconnectMaxWait == 0 {
		cfg.ReconnectMaxWait = DefaultHubConfig().ReconnectMaxWait
	}
	return &Hub{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[string]struct{}),
	}
}

// OnBidPlaced registers a handler for bid-placed notifications. Must be
// called before Start.
func (h *Hub) OnBidPlaced(fn Handler) {
	h.handlerMu.Lock()
	h.bidPlaced = append(h.bidPlaced, fn)
	h.handlerMu.Unlock()
}

// OnBuyNow registers a handler for buy-now notifications. Must be called
// before Start.
func (h *Hub) OnBuyNow(fn Handler) {
	h.handlerMu.Lock()
	h.buyNow = append(h.buyNow, fn)
	h.handlerMu.Unlock()
}

// Start begins connecting and reading. The hub reconnects with capped
// exponential backoff until Stop.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrAlreadyClosed
	}
	h.mu.Unlock()

	h.ctx, h.cancel = context.WithCancel(ctx)

	h.wg.Add(1)
	go h.runLoop()

	h.logger.Info("hub client started", "url", h.cfg.URL)
	return nil
}

// Stop closes the connection and waits for the run loop.
func (h *Hub) Stop(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	conn := h.conn
	h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
	}
	if conn != nil {
		conn.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("hub client stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe asks the hub for one auction's notifications. The subscription
// is replayed after every reconnect.
func (h *Hub) Subscribe(auctionID string) error {
	h.mu.Lock()
	h.subs[auctionID] = struct{}{}
	connected := h.connected
	h.mu.Unlock()

	if !connected {
		return nil // sent on connect
	}
	return h.send(command{Cmd: "subscribe", AuctionID: auctionID})
}

// Unsubscribe stops one auction's notifications.
func (h *Hub) Unsubscribe(auctionID string) error {
	h.mu.Lock()
	delete(h.subs, auctionID)
	connected := h.connected
	h.mu.Unlock()

	if !connected {
		return nil
	}
	return h.send(command{Cmd: "unsubscribe", AuctionID: auctionID})
}

// IsConnected returns current connection state.
func (h *Hub) IsConnected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

// runLoop connects, reads until failure, and reconnects with backoff.
func (h *Hub) runLoop() {
	defer h.wg.Done()

	wait := h.cfg.ReconnectBaseWait
	for {
		if h.ctx.Err() != nil {
			return
		}

		if err := h.connect(); err != nil {
			h.logger.Warn("hub connect failed", "err", err, "retry_in", wait)
			select {
			case <-h.ctx.Done():
				return
			case <-time.After(wait):
			}
			wait = min(wait*2, h.cfg.ReconnectMaxWait)
			continue
		}

		wait = h.cfg.ReconnectBaseWait
		h.readUntilClosed()

		h.mu.Lock()
		h.connected = false
		h.mu.Unlock()
	}
}

func (h *Hub) connect() error {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if h.cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(h.ctx, h.cfg.URL, header)
	if err != nil {
		return err
	}

	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	h.mu.Lock()
	h.conn = conn
	h.connected = true
	subs := make([]string, 0, len(h.subs))
	for id := range h.subs {
		subs = append(subs, id)
	}
	h.mu.Unlock()

	h.logger.Debug("hub connected", "url", h.cfg.URL, "subscriptions", len(subs))

	// Replay subscriptions (recovers coverage after a disconnection gap;
	// the reconciliation policy catches up on whatever was missed).
	for _, id := range subs {
		if err := h.send(command{Cmd: "subscribe", AuctionID: id}); err != nil {
			h.logger.Warn("resubscribe failed", "auction_id", id, "err", err)
		}
	}

	return nil
}

func (h *Hub) readUntilClosed() {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if h.ctx.Err() == nil {
				h.logger.Warn("hub read failed, reconnecting", "err", err)
			}
			conn.Close()
			return
		}
		h.dispatch(data)
	}
}

// dispatch routes one raw frame to the registered handlers.
func (h *Hub) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.logger.Warn("unparseable hub frame", "err", err)
		return
	}

	h.handlerMu.RLock()
	defer h.handlerMu.RUnlock()

	switch env.Type {
	case "bid_placed":
		for _, fn := range h.bidPlaced {
			fn(env.Msg)
		}
	case "buy_now":
		for _, fn := range h.buyNow {
			fn(env.Msg)
		}
	case "subscribed", "unsubscribed":
		// Acks need no handling.
	default:
		h.logger.Debug("skipping hub frame", "type", env.Type)
	}
}

func (h *Hub) send(cmd command) error {
	h.mu.Lock()
	conn := h.conn
	connected := h.connected
	h.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
	return conn.WriteJSON(cmd)
}
