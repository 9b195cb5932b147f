package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the wire format for event timestamps (ISO-8601,
// millisecond precision). Server timestamps are monotonically non-decreasing
// across on-the-wire events; optimistic events use the client clock.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Origin is the provenance channel of a bid event. It decides precedence
// during deduplication and is never shown to the user.
type Origin string

const (
	OriginOptimistic    Origin = "optimistic"
	OriginRealtime      Origin = "realtime"
	OriginAuthoritative Origin = "authoritative"
)

// Priority returns the fidelity rank of the origin:
// authoritative > realtime > optimistic.
func (o Origin) Priority() int {
	switch o {
	case OriginAuthoritative:
		return 3
	case OriginRealtime:
		return 2
	case OriginOptimistic:
		return 1
	default:
		return 0
	}
}

// EventKind distinguishes a newly placed bid from a revision of an
// existing bid.
type EventKind string

const (
	KindCreated EventKind = "Created"
	KindUpdated EventKind = "Updated"
)

// -----------------------------------------------------------------------------
// Bid events
// -----------------------------------------------------------------------------

// BidEvent is one atomic change to an auction's price/bid state, normalized
// from any of the three input channels (optimistic write, real-time push,
// authoritative fetch).
type BidEvent struct {
	ID        string    // Unique event ID (synthetic for optimistic events)
	BidID     string    // Stable bid record ID across revisions
	AuctionID string    // Auction this event belongs to
	UserID    string    // Bidder ID
	UserName  string    // Bidder display name
	Kind      EventKind // Created or Updated
	IsAutoBid bool      // Placed by a proxy-bidding agent

	Amount decimal.Decimal // Bid amount at this event

	// Auction price before/after this event. Zero when the source carried
	// no price snapshot (partial data); use EffectivePrice instead of
	// reading NewPrice directly.
	PreviousPrice decimal.Decimal
	NewPrice      decimal.Decimal

	OccurredAt time.Time // Authoritative ordering key
	Origin     Origin    // Provenance channel
}

// DedupKey returns the logical identity of the event: bid ID plus timestamp
// at millisecond precision, falling back to the event ID when either is
// missing. Two events with the same key are the same logical event
// regardless of origin.
func (e BidEvent) DedupKey() string {
	if e.BidID == "" || e.OccurredAt.IsZero() {
		return "id:" + e.ID
	}
	return fmt.Sprintf("%s@%d", e.BidID, e.OccurredAt.UnixMilli())
}

// EffectivePrice returns the auction price implied by this event: the
// post-event price when the source carried one, otherwise the bid amount.
func (e BidEvent) EffectivePrice() decimal.Decimal {
	if e.NewPrice.IsPositive() {
		return e.NewPrice
	}
	return e.Amount
}

// AuctionPriceState is the derived price view of one auction. CurrentPrice
// is monotonically non-decreasing over the lifetime of one store.
type AuctionPriceState struct {
	CurrentPrice       decimal.Decimal
	LastUpdatedEventID string
}

// -----------------------------------------------------------------------------
// Auction metadata
// -----------------------------------------------------------------------------

// Auction is one timed sale session. Metadata is fetched once when
// observation begins; the live bid state lives in the bid log store.
type Auction struct {
	ID            string
	Title         string
	SellerID      string
	SellerName    string
	StartingPrice decimal.Decimal
	BidIncrement  decimal.Decimal
	BuyNowPrice   decimal.Decimal // Zero when the auction has no buy-now option
	StartsAt      time.Time
	EndsAt        time.Time
	Status        string // "scheduled", "open", "closed", "sold"
}
