package bidlog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vutran/agribid/internal/model"
)

// View is the pure read-side projection of one store for presentation:
// current price, unread-new-bid count, and countdown state. It owns the
// "last viewed" watermark; everything else is derived on demand.
type View struct {
	store         *Store
	startingPrice decimal.Decimal
	endsAt        time.Time

	lastViewed time.Time
}

// NewView creates a projection over the given store. The starting price and
// end time come from auction metadata, which the store itself never holds.
func NewView(store *Store, startingPrice decimal.Decimal, endsAt time.Time) *View {
	return &View{
		store:         store,
		startingPrice: startingPrice,
		endsAt:        endsAt,
	}
}

// CurrentPrice returns the display price: the derived current price, or the
// starting price while the log is empty.
func (v *View) CurrentPrice() decimal.Decimal {
	return v.store.PriceState(v.startingPrice).CurrentPrice
}

// PriceState exposes the full derived price state, including traceability
// to the event that produced it.
func (v *View) PriceState() model.AuctionPriceState {
	return v.store.PriceState(v.startingPrice)
}

// UnreadCount returns the number of events that occurred strictly after the
// last-viewed watermark.
func (v *View) UnreadCount() int {
	var n int
	for _, ev := range v.store.RankedHistory() {
		if ev.OccurredAt.After(v.lastViewed) {
			n++
		}
	}
	return n
}

// MarkViewed resets the unread count to zero. The watermark records the
// timestamp of the newest event, not wall-clock time, so a burst of events
// between two observations of the log is never undercounted.
func (v *View) MarkViewed() {
	if latest, ok := v.store.Latest(); ok {
		v.lastViewed = latest.OccurredAt
	}
}

// RankedHistory is a passthrough from the store, exposed for display.
func (v *View) RankedHistory() []model.BidEvent {
	return v.store.RankedHistory()
}

// Remaining returns the time left until the auction ends, zero once ended.
func (v *View) Remaining(now time.Time) time.Duration {
	if !now.Before(v.endsAt) {
		return 0
	}
	return v.endsAt.Sub(now)
}

// Ended reports whether the auction end time has passed.
func (v *View) Ended(now time.Time) bool {
	return !now.Before(v.endsAt)
}
