package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vutran/agribid/internal/api"
	"github.com/vutran/agribid/internal/metrics"
	"github.com/vutran/agribid/internal/model"
)

// Pipeline normalizes the three heterogeneous input shapes (real-time push
// payload, optimistic write receipt, authoritative log entry) into the
// uniform BidEvent shape for one observed auction.
//
// Malformed individual events are dropped with a warning; a bad entry never
// fails the batch it arrived in.
type Pipeline struct {
	auctionID string
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewPipeline creates a pipeline scoped to one auction.
func NewPipeline(auctionID string, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		auctionID: auctionID,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// BidPlaced converts a bid-placed push payload. Events for another auction
// or with unparseable fields are discarded with ok=false and no state
// change.
func (p *Pipeline) BidPlaced(data []byte) (model.BidEvent, bool) {
	var wire bidPlacedWire
	if err := json.Unmarshal(data, &wire); err != nil {
		p.logger.Warn("dropping malformed bid-placed payload", "err", err)
		p.metrics.IncMalformedDropped()
		return model.BidEvent{}, false
	}

	if wire.AuctionID != p.auctionID {
		p.metrics.IncWrongAuctionDropped()
		return model.BidEvent{}, false
	}

	placedAt, err := time.Parse(time.RFC3339, wire.PlacedAt)
	if err != nil {
		p.logger.Warn("dropping bid-placed payload with bad timestamp",
			"bid_id", wire.BidID,
			"placed_at", wire.PlacedAt,
			"err", err,
		)
		p.metrics.IncMalformedDropped()
		return model.BidEvent{}, false
	}

	if !wire.BidAmount.IsPositive() {
		p.logger.Warn("dropping bid-placed payload with non-positive amount", "bid_id", wire.BidID)
		p.metrics.IncMalformedDropped()
		return model.BidEvent{}, false
	}

	kind := model.KindCreated
	if wire.Revised {
		kind = model.KindUpdated
	}

	p.metrics.IncRealtimeEvents()

	return model.BidEvent{
		ID:            fmt.Sprintf("rt-%s-%d", wire.BidID, placedAt.UnixMilli()),
		BidID:         wire.BidID,
		AuctionID:     wire.AuctionID,
		UserID:        wire.UserID,
		UserName:      wire.UserName,
		Kind:          kind,
		IsAutoBid:     wire.IsAutoBid,
		Amount:        wire.BidAmount,
		PreviousPrice: wire.PreviousPrice,
		NewPrice:      wire.NewPrice,
		OccurredAt:    placedAt,
		Origin:        model.OriginRealtime,
	}, true
}

// BuyNow converts a buy-now push payload. A buy-now carries no bid record,
// so the event is keyed by its synthetic ID alone.
func (p *Pipeline) BuyNow(data []byte) (model.BidEvent, bool) {
	var wire buyNowWire
	if err := json.Unmarshal(data, &wire); err != nil {
		p.logger.Warn("dropping malformed buy-now payload", "err", err)
		p.metrics.IncMalformedDropped()
		return model.BidEvent{}, false
	}

	if wire.AuctionID != p.auctionID {
		p.metrics.IncWrongAuctionDropped()
		return model.BidEvent{}, false
	}

	purchasedAt, err := time.Parse(time.RFC3339, wire.PurchasedAt)
	if err != nil {
		p.logger.Warn("dropping buy-now payload with bad timestamp",
			"auction_id", wire.AuctionID,
			"err", err,
		)
		p.metrics.IncMalformedDropped()
		return model.BidEvent{}, false
	}

	if !wire.BuyNowPrice.IsPositive() {
		p.metrics.IncMalformedDropped()
		return model.BidEvent{}, false
	}

	p.metrics.IncRealtimeEvents()

	return model.BidEvent{
		ID:         fmt.Sprintf("buynow-%s-%d", wire.AuctionID, purchasedAt.UnixMilli()),
		AuctionID:  wire.AuctionID,
		UserName:   wire.UserName,
		Kind:       model.KindCreated,
		Amount:     wire.BuyNowPrice,
		NewPrice:   wire.BuyNowPrice,
		OccurredAt: purchasedAt,
		Origin:     model.OriginRealtime,
	}, true
}

// Optimistic synthesizes an event from a successful synchronous write,
// before any asynchronous confirmation arrives. The synthetic ID embeds the
// real bid ID plus an "opt" marker so a future authoritative record for the
// same bid can supersede it safely.
func (p *Pipeline) Optimistic(receipt api.BidReceipt, userID, userName string, kind model.EventKind) model.BidEvent {
	return model.BidEvent{
		ID:         fmt.Sprintf("%s-opt-%s", receipt.BidID, uuid.NewString()),
		BidID:      receipt.BidID,
		AuctionID:  receipt.AuctionID,
		UserID:     userID,
		UserName:   userName,
		Kind:       kind,
		IsAutoBid:  receipt.IsAutoBid,
		Amount:     receipt.Amount,
		OccurredAt: p.now(),
		Origin:     model.OriginOptimistic,
	}
}

// LogEntries converts an authoritative bid-log batch. Entries whose
// embedded snapshot cannot be decoded are dropped individually; the rest
// of the batch goes through.
func (p *Pipeline) LogEntries(entries []api.BidLogEntry) []model.BidEvent {
	events := make([]model.BidEvent, 0, len(entries))

	for _, entry := range entries {
		ev, err := p.convertLogEntry(entry)
		if err != nil {
			p.logger.Warn("dropping malformed bid log entry",
				"entry_id", entry.ID,
				"bid_id", entry.BidID,
				"err", err,
			)
			p.metrics.IncMalformedDropped()
			continue
		}
		events = append(events, ev)
	}

	return events
}

func (p *Pipeline) convertLogEntry(entry api.BidLogEntry) (model.BidEvent, error) {
	occurredAt, err := parseEntryTime(entry)
	if err != nil {
		return model.BidEvent{}, err
	}

	var snap entitySnapshot
	if err := json.Unmarshal([]byte(entry.NewEntitySnapshot), &snap); err != nil {
		return model.BidEvent{}, fmt.Errorf("decode new snapshot: %w", err)
	}
	if !snap.Bid.Amount.IsPositive() {
		return model.BidEvent{}, fmt.Errorf("snapshot has no usable bid amount")
	}

	kind := model.EventKind(entry.Type)
	if kind != model.KindCreated && kind != model.KindUpdated {
		return model.BidEvent{}, fmt.Errorf("unknown entry type %q", entry.Type)
	}

	ev := model.BidEvent{
		ID:         entry.ID,
		BidID:      entry.BidID,
		AuctionID:  p.auctionID,
		UserID:     entry.UserID,
		UserName:   entry.UserName,
		Kind:       kind,
		IsAutoBid:  entry.IsAutoBidding,
		Amount:     snap.Bid.Amount,
		NewPrice:   snap.Auction.CurrentPrice,
		OccurredAt: occurredAt,
		Origin:     model.OriginAuthoritative,
	}

	// The old snapshot is optional; absence just means no previous price.
	if entry.OldEntitySnapshot != "" {
		var old entitySnapshot
		if err := json.Unmarshal([]byte(entry.OldEntitySnapshot), &old); err == nil {
			ev.PreviousPrice = old.Auction.CurrentPrice
		}
	}

	return ev, nil
}

// parseEntryTime prefers the revision timestamp and falls back to the
// entry's creation time.
func parseEntryTime(entry api.BidLogEntry) (time.Time, error) {
	if entry.DateTimeUpdate != "" {
		if t, err := time.Parse(time.RFC3339, entry.DateTimeUpdate); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339, entry.CreatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("no usable timestamp: %w", err)
	}
	return t, nil
}
