package bidlog

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vutran/agribid/internal/model"
)

// Store holds the deduplicated, time-ordered set of bid events for exactly
// one auction and derives the current price state. It is pure data: no I/O,
// no locking. The owning observation loop is the only mutator.
type Store struct {
	auctionID string

	byKey map[string]*entry
	order []*entry // insertion order, for stable tie-breaking

	seq int64 // next insertion sequence number

	// High-water mark: an auction never legitimately returns to a lower
	// price, so the derived price only moves up.
	maxPrice        decimal.Decimal
	maxPriceEventID string
}

type entry struct {
	ev  model.BidEvent
	seq int64
}

// UpsertResult reports what a batch application actually changed, so callers
// can skip redundant view recomputation.
type UpsertResult struct {
	Added             int // events newly inserted
	Replaced          int // events that superseded an existing entry
	OptimisticRetired int // optimistic placeholders removed by server-sourced events
	Dropped           int // incoming events discarded (duplicate or lower fidelity)
}

// Changed reports whether the set mutated at all.
func (r UpsertResult) Changed() bool {
	return r.Added > 0 || r.Replaced > 0 || r.OptimisticRetired > 0
}

// NewStore creates an empty store for one auction.
func NewStore(auctionID string) *Store {
	return &Store{
		auctionID: auctionID,
		byKey:     make(map[string]*entry),
	}
}

// AuctionID returns the auction this store observes.
func (s *Store) AuctionID() string {
	return s.auctionID
}

// Len returns the number of distinct events held.
func (s *Store) Len() int {
	return len(s.order)
}

// Upsert applies a batch of events. For each incoming event:
//
//   - events for a different auction are ignored;
//   - if no existing event shares its dedup key, it is inserted;
//   - if one exists, the incoming event replaces it only when it has
//     higher-fidelity provenance or a strictly newer timestamp.
//
// A non-optimistic event additionally retires any optimistic placeholder
// for the same bid with an equal or older timestamp: once the server has
// spoken for a bid, the locally synthesized guess has served its purpose.
func (s *Store) Upsert(events []model.BidEvent) UpsertResult {
	var res UpsertResult

	for _, ev := range events {
		if ev.AuctionID != "" && ev.AuctionID != s.auctionID {
			res.Dropped++
			continue
		}

		if ev.Origin != model.OriginOptimistic {
			res.OptimisticRetired += s.retireOptimistic(ev)
		}

		key := ev.DedupKey()
		existing, ok := s.byKey[key]
		if !ok {
			s.insert(key, ev)
			res.Added++
			continue
		}

		if supersedes(ev, existing.ev) {
			existing.ev = ev
			s.observePrice(ev)
			res.Replaced++
		} else {
			res.Dropped++
		}
	}

	return res
}

// supersedes reports whether the incoming event should replace an existing
// one sharing its dedup key: higher provenance wins, then strictly newer
// timestamps.
func supersedes(in, cur model.BidEvent) bool {
	if in.Origin.Priority() != cur.Origin.Priority() {
		return in.Origin.Priority() > cur.Origin.Priority()
	}
	return in.OccurredAt.After(cur.OccurredAt)
}

// retireOptimistic removes optimistic entries for the same bid that the
// incoming server-sourced event confirms. Only placeholders at or before
// the incoming timestamp are removed; a newer optimistic revision of the
// same bid is still awaiting its own confirmation.
func (s *Store) retireOptimistic(in model.BidEvent) int {
	if in.BidID == "" {
		return 0
	}

	var removed int
	for key, e := range s.byKey {
		if e.ev.Origin != model.OriginOptimistic || e.ev.BidID != in.BidID {
			continue
		}
		if e.ev.OccurredAt.After(in.OccurredAt) {
			continue
		}
		delete(s.byKey, key)
		for i, o := range s.order {
			if o == e {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		removed++
	}
	return removed
}

func (s *Store) insert(key string, ev model.BidEvent) {
	e := &entry{ev: ev, seq: s.seq}
	s.seq++
	s.byKey[key] = e
	s.order = append(s.order, e)
	s.observePrice(ev)
}

func (s *Store) observePrice(ev model.BidEvent) {
	p := ev.EffectivePrice()
	if p.GreaterThan(s.maxPrice) {
		s.maxPrice = p
		s.maxPriceEventID = ev.ID
	}
}

// Latest returns the event with the maximum timestamp. Ties are broken by
// provenance priority, then by insertion order. Returns false when empty.
func (s *Store) Latest() (model.BidEvent, bool) {
	if len(s.order) == 0 {
		return model.BidEvent{}, false
	}

	best := s.order[0]
	for _, e := range s.order[1:] {
		if laterThan(e, best) {
			best = e
		}
	}
	return best.ev, true
}

func laterThan(a, b *entry) bool {
	if !a.ev.OccurredAt.Equal(b.ev.OccurredAt) {
		return a.ev.OccurredAt.After(b.ev.OccurredAt)
	}
	if a.ev.Origin.Priority() != b.ev.Origin.Priority() {
		return a.ev.Origin.Priority() > b.ev.Origin.Priority()
	}
	return a.seq > b.seq
}

// RankedHistory returns all events sorted descending by timestamp. The sort
// is stable: equal timestamps preserve relative insertion order.
func (s *Store) RankedHistory() []model.BidEvent {
	ranked := make([]*entry, len(s.order))
	copy(ranked, s.order)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ev.OccurredAt.After(ranked[j].ev.OccurredAt)
	})

	out := make([]model.BidEvent, len(ranked))
	for i, e := range ranked {
		out[i] = e.ev
	}
	return out
}

// NewestOccurredAt returns the maximum timestamp held, zero when empty.
// The reconciliation policy uses it to judge fetch staleness.
func (s *Store) NewestOccurredAt() time.Time {
	latest, ok := s.Latest()
	if !ok {
		return time.Time{}
	}
	return latest.OccurredAt
}

// PriceState derives the current price view. The starting price is supplied
// by the caller (auction metadata lives outside the store) and is used only
// while no event has been observed.
func (s *Store) PriceState(startingPrice decimal.Decimal) model.AuctionPriceState {
	if len(s.order) == 0 && s.maxPrice.IsZero() {
		return model.AuctionPriceState{CurrentPrice: startingPrice}
	}

	price := s.maxPrice
	if startingPrice.GreaterThan(price) {
		price = startingPrice
	}
	return model.AuctionPriceState{
		CurrentPrice:       price,
		LastUpdatedEventID: s.maxPriceEventID,
	}
}
