package observe

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vutran/agribid/internal/api"
	"github.com/vutran/agribid/internal/bidlog"
	"github.com/vutran/agribid/internal/ingest"
	"github.com/vutran/agribid/internal/metrics"
	"github.com/vutran/agribid/internal/model"
	"github.com/vutran/agribid/internal/reconcile"
)

// BidLogClient is the slice of the REST client the observation needs.
type BidLogClient interface {
	GetBidLog(ctx context.Context, auctionID string) ([]api.BidLogEntry, error)
}

// Snapshot is the UI-facing projection of one observed auction, emitted to
// the change sink after every effective mutation.
type Snapshot struct {
	AuctionID     string
	CurrentPrice  decimal.Decimal
	UnreadNewBids int
	History       []model.BidEvent
}

// Config holds observation settings.
type Config struct {
	Reconcile reconcile.Config
	QueueSize int // input queue length (default: 256)

	// OnChange, when set, receives a snapshot after every mutation that
	// actually changed the view. It runs on the observation loop.
	OnChange func(Snapshot)

	// Archive, when set, receives every server-sourced event that entered
	// the store, for background persistence.
	Archive *ingest.Buffer[model.BidEvent]
}

// Observation owns the live bid state of exactly one auction: store, view,
// pipeline and reconciliation policy. All mutation happens on a single
// event loop; the public methods only enqueue. One Observation is created
// when the client begins watching an auction and discarded on Stop, so the
// store is rebuilt from a fresh authoritative fetch each time.
type Observation struct {
	auction model.Auction
	cfg     Config
	logger  *slog.Logger

	store    *bidlog.Store
	view     *bidlog.View
	pipeline *ingest.Pipeline
	policy   *reconcile.Policy

	inputs   chan message
	archived map[string]struct{} // dedup keys already sent to the archive

	// reconcileGen invalidates pending retry timers: a retry enqueued for
	// an older generation is a no-op. Guards against a stale timer racing
	// a newer observe/unobserve cycle.
	reconcileGen int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type message struct {
	kind msgKind

	payload []byte // realtime frames

	receipt  api.BidReceipt // optimistic writes
	userID   string
	userName string
	evKind   model.EventKind

	attempt int   // reconcile attempts
	gen     int64 // reconcile generation tag

	snapReply chan Snapshot // queries
	ack       chan struct{} // mark-viewed
}

type msgKind int

const (
	msgBidPlaced msgKind = iota
	msgBuyNow
	msgOptimistic
	msgReconcile
	msgMarkViewed
	msgSnapshot
)

// New creates an observation for one auction. The auction metadata
// (starting price, end time) must already be fetched.
func New(auction model.Auction, client BidLogClient, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Observation {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("auction_id", auction.ID)

	if cfg.QueueSize == 0 {
		cfg.QueueSize = 256
	}

	store := bidlog.NewStore(auction.ID)
	pipeline := ingest.NewPipeline(auction.ID, logger, m)

	fetcher := reconcile.FetcherFunc(func(ctx context.Context, auctionID string) ([]model.BidEvent, error) {
		entries, err := client.GetBidLog(ctx, auctionID)
		if err != nil {
			return nil, err
		}
		return pipeline.LogEntries(entries), nil
	})

	return &Observation{
		auction:  auction,
		cfg:      cfg,
		logger:   logger,
		store:    store,
		view:     bidlog.NewView(store, auction.StartingPrice, auction.EndsAt),
		pipeline: pipeline,
		policy:   reconcile.NewPolicy(cfg.Reconcile, store, fetcher, logger, m),
		inputs:   make(chan message, cfg.QueueSize),
		archived: make(map[string]struct{}),
	}
}

// Start launches the event loop and kicks off the initial authoritative
// fetch that seeds the store.
func (o *Observation) Start(ctx context.Context) error {
	o.ctx, o.cancel = context.WithCancel(ctx)

	o.wg.Add(1)
	go o.loop()

	o.enqueue(message{kind: msgReconcile, attempt: 1, gen: 0})

	o.logger.Info("observation started",
		"starting_price", o.auction.StartingPrice,
		"ends_at", o.auction.EndsAt,
	)
	return nil
}

// Stop ends the observation. Any in-flight retry chain becomes a no-op.
func (o *Observation) Stop(ctx context.Context) error {
	if o.cancel != nil {
		o.cancel()
	}

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info("observation stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AuctionID returns the observed auction.
func (o *Observation) AuctionID() string {
	return o.auction.ID
}

// HandleBidPlaced is the real-time bid-placed callback; register it with
// the transport hub. It never blocks the caller.
func (o *Observation) HandleBidPlaced(payload []byte) {
	o.enqueue(message{kind: msgBidPlaced, payload: payload})
}

// HandleBuyNow is the real-time buy-now callback.
func (o *Observation) HandleBuyNow(payload []byte) {
	o.enqueue(message{kind: msgBuyNow, payload: payload})
}

// RecordOptimistic reacts to a successful synchronous write: it synthesizes
// the optimistic event immediately and starts a reconcile chain to replace
// it with the authoritative record once the backend read path catches up.
func (o *Observation) RecordOptimistic(receipt api.BidReceipt, userID, userName string, kind model.EventKind) {
	if !receipt.Accepted {
		return
	}
	o.enqueue(message{
		kind:     msgOptimistic,
		receipt:  receipt,
		userID:   userID,
		userName: userName,
		evKind:   kind,
	})
}

// Snapshot returns the current projection. Returns the zero snapshot after
// Stop.
func (o *Observation) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	if !o.enqueue(message{kind: msgSnapshot, snapReply: reply}) {
		return Snapshot{AuctionID: o.auction.ID}
	}
	select {
	case s := <-reply:
		return s
	case <-o.ctx.Done():
		return Snapshot{AuctionID: o.auction.ID}
	}
}

// MarkViewed resets the unread-new-bid count.
func (o *Observation) MarkViewed() {
	ack := make(chan struct{}, 1)
	if !o.enqueue(message{kind: msgMarkViewed, ack: ack}) {
		return
	}
	select {
	case <-ack:
	case <-o.ctx.Done():
	}
}

// enqueue delivers a message to the loop, reporting false once stopped.
func (o *Observation) enqueue(msg message) bool {
	select {
	case o.inputs <- msg:
		return true
	case <-o.ctx.Done():
		return false
	}
}

// loop is the single mutation site for the store and view.
func (o *Observation) loop() {
	defer o.wg.Done()

	for {
		select {
		case <-o.ctx.Done():
			return
		case msg := <-o.inputs:
			o.handle(msg)
		}
	}
}

func (o *Observation) handle(msg message) {
	switch msg.kind {
	case msgBidPlaced:
		if ev, ok := o.pipeline.BidPlaced(msg.payload); ok {
			o.apply([]model.BidEvent{ev})
		}

	case msgBuyNow:
		if ev, ok := o.pipeline.BuyNow(msg.payload); ok {
			o.apply([]model.BidEvent{ev})
		}

	case msgOptimistic:
		ev := o.pipeline.Optimistic(msg.receipt, msg.userID, msg.userName, msg.evKind)
		o.apply([]model.BidEvent{ev})
		o.startReconcile()

	case msgReconcile:
		o.runReconcile(msg.attempt, msg.gen)

	case msgMarkViewed:
		o.view.MarkViewed()
		msg.ack <- struct{}{}

	case msgSnapshot:
		msg.snapReply <- o.snapshotLocked()
	}
}

// apply pushes events into the store and fans out the side effects of an
// effective change.
func (o *Observation) apply(events []model.BidEvent) {
	res := o.store.Upsert(events)
	if !res.Changed() {
		return
	}

	for _, ev := range events {
		o.archiveEvent(ev)
	}

	o.notify()
}

// archiveEvent forwards one server-sourced event to the archive buffer,
// at most once per dedup key.
func (o *Observation) archiveEvent(ev model.BidEvent) {
	if o.cfg.Archive == nil || ev.Origin == model.OriginOptimistic {
		return
	}
	key := ev.DedupKey()
	if _, seen := o.archived[key]; seen {
		return
	}
	o.archived[key] = struct{}{}
	o.cfg.Archive.Send(ev)
}

// startReconcile begins a fresh fetch chain, invalidating any retries
// still pending from an earlier chain.
func (o *Observation) startReconcile() {
	o.reconcileGen++
	o.enqueue(message{kind: msgReconcile, attempt: 1, gen: o.reconcileGen})
}

// runReconcile executes one policy attempt on the loop. The fetch itself
// is the loop's only suspension point besides the backoff timers; realtime
// events queue behind it and apply right after, which preserves arrival
// order relative to store mutation.
func (o *Observation) runReconcile(attempt int, gen int64) {
	if gen != o.reconcileGen {
		return // stale retry from a superseded chain
	}

	out := o.policy.Attempt(o.ctx, attempt)

	switch out.State {
	case reconcile.StateAccepted:
		if out.Result.Changed() {
			// The authoritative batch reached the store inside the
			// policy; archive from the merged history.
			for _, ev := range o.store.RankedHistory() {
				o.archiveEvent(ev)
			}
			o.notify()
		}

	case reconcile.StateRetryScheduled:
		delay := out.RetryIn
		next := attempt + 1
		time.AfterFunc(delay, func() {
			if o.ctx.Err() != nil {
				return
			}
			o.enqueue(message{kind: msgReconcile, attempt: next, gen: gen})
		})

	case reconcile.StateExhausted:
		// Deliberate: optimistic/realtime state stays authoritative for
		// this client; the next chain or realtime event moves it forward.
	}
}

func (o *Observation) snapshotLocked() Snapshot {
	return Snapshot{
		AuctionID:     o.auction.ID,
		CurrentPrice:  o.view.CurrentPrice(),
		UnreadNewBids: o.view.UnreadCount(),
		History:       o.view.RankedHistory(),
	}
}

func (o *Observation) notify() {
	if o.cfg.OnChange != nil {
		o.cfg.OnChange(o.snapshotLocked())
	}
}
