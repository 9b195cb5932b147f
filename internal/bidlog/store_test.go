package bidlog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vutran/agribid/internal/model"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func at(ms int64) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func ev(id, bidID string, ms int64, amount int64, origin model.Origin) model.BidEvent {
	return model.BidEvent{
		ID:         id,
		BidID:      bidID,
		AuctionID:  "A1",
		UserID:     "U1",
		UserName:   "Binh",
		Kind:       model.KindCreated,
		Amount:     decimal.NewFromInt(amount),
		OccurredAt: at(ms),
		Origin:     origin,
	}
}

func TestStore_Upsert_InsertAndCount(t *testing.T) {
	s := NewStore("A1")

	res := s.Upsert([]model.BidEvent{
		ev("E1", "B1", 5, 110000, model.OriginRealtime),
		ev("E2", "B2", 10, 120000, model.OriginRealtime),
	})

	if res.Added != 2 || !res.Changed() {
		t.Errorf("Upsert = %+v, want 2 added", res)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestStore_Upsert_Idempotent(t *testing.T) {
	s := NewStore("A1")
	batch := []model.BidEvent{
		ev("E1", "B1", 5, 110000, model.OriginRealtime),
		ev("E2", "B2", 10, 120000, model.OriginRealtime),
	}

	s.Upsert(batch)
	before := s.RankedHistory()
	price := s.PriceState(decimal.Zero)

	res := s.Upsert(batch)
	if res.Changed() {
		t.Errorf("second application changed the store: %+v", res)
	}

	after := s.RankedHistory()
	if len(before) != len(after) {
		t.Fatalf("history length changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Errorf("history[%d] = %s, want %s", i, after[i].ID, before[i].ID)
		}
	}
	if !s.PriceState(decimal.Zero).CurrentPrice.Equal(price.CurrentPrice) {
		t.Error("price state changed on idempotent reapply")
	}
}

func TestStore_Upsert_WrongAuctionIgnored(t *testing.T) {
	s := NewStore("Y")
	other := ev("E1", "B1", 5, 110000, model.OriginRealtime)
	other.AuctionID = "X"

	res := s.Upsert([]model.BidEvent{other})
	if res.Changed() {
		t.Errorf("wrong-auction event mutated the store: %+v", res)
	}
	if len(s.RankedHistory()) != 0 {
		t.Error("wrong-auction event appeared in history")
	}
}

func TestStore_Upsert_ProvenancePrecedence(t *testing.T) {
	s := NewStore("A1")

	// Same dedup key (bid + timestamp), increasing fidelity.
	rt := ev("srv-1", "B1", 5, 110000, model.OriginRealtime)
	auth := ev("log-1", "B1", 5, 110000, model.OriginAuthoritative)

	s.Upsert([]model.BidEvent{rt})
	res := s.Upsert([]model.BidEvent{auth})
	if res.Replaced != 1 {
		t.Fatalf("authoritative should replace realtime, got %+v", res)
	}

	// Lower fidelity must not regress.
	res = s.Upsert([]model.BidEvent{rt})
	if res.Changed() {
		t.Errorf("realtime re-delivery replaced authoritative: %+v", res)
	}

	hist := s.RankedHistory()
	if len(hist) != 1 || hist[0].ID != "log-1" {
		t.Errorf("history = %+v, want single authoritative entry", hist)
	}
}

func TestStore_Upsert_OptimisticSupersededByAuthoritative(t *testing.T) {
	s := NewStore("A1")

	opt := ev("B1-opt-1", "B1", 1000, 100, model.OriginOptimistic)
	s.Upsert([]model.BidEvent{opt})

	auth := ev("log-1", "B1", 1005, 100, model.OriginAuthoritative)
	res := s.Upsert([]model.BidEvent{auth})
	if !res.Changed() {
		t.Fatal("authoritative batch should mutate the store")
	}

	hist := s.RankedHistory()
	if len(hist) != 1 {
		t.Fatalf("history has %d entries for B1, want 1", len(hist))
	}
	if hist[0].Origin != model.OriginAuthoritative {
		t.Errorf("surviving entry origin = %s, want authoritative", hist[0].Origin)
	}
}

func TestStore_Upsert_NewerOptimisticSurvivesOlderConfirmation(t *testing.T) {
	s := NewStore("A1")

	// A second optimistic revision of the same bid placed after the server
	// event must not be wiped by the older confirmation.
	s.Upsert([]model.BidEvent{ev("B1-opt-1", "B1", 1000, 100, model.OriginOptimistic)})
	s.Upsert([]model.BidEvent{ev("B1-opt-2", "B1", 2000, 120, model.OriginOptimistic)})

	s.Upsert([]model.BidEvent{ev("srv-1", "B1", 1005, 100, model.OriginRealtime)})

	var optimistic int
	for _, e := range s.RankedHistory() {
		if e.Origin == model.OriginOptimistic {
			optimistic++
		}
	}
	if optimistic != 1 {
		t.Errorf("optimistic survivors = %d, want the newer revision only", optimistic)
	}
}

func TestStore_OutOfOrderConvergence(t *testing.T) {
	e1 := ev("E1", "B1", 5, 110000, model.OriginRealtime)
	e2 := ev("E2", "B2", 10, 120000, model.OriginRealtime)

	forward := NewStore("A1")
	forward.Upsert([]model.BidEvent{e1, e2})

	reversed := NewStore("A1")
	reversed.Upsert([]model.BidEvent{e2, e1})

	fh, rh := forward.RankedHistory(), reversed.RankedHistory()
	if len(fh) != len(rh) {
		t.Fatalf("history lengths differ: %d vs %d", len(fh), len(rh))
	}
	for i := range fh {
		if fh[i].ID != rh[i].ID {
			t.Errorf("history[%d]: %s vs %s", i, fh[i].ID, rh[i].ID)
		}
	}
	if fh[0].ID != "E2" {
		t.Errorf("newest first, got %s", fh[0].ID)
	}
}

func TestStore_Latest_TieBreaking(t *testing.T) {
	s := NewStore("A1")

	// Same timestamp, different bids: provenance outranks insertion order.
	s.Upsert([]model.BidEvent{ev("E1", "B1", 5, 100, model.OriginAuthoritative)})
	s.Upsert([]model.BidEvent{ev("E2", "B2", 5, 100, model.OriginRealtime)})

	latest, ok := s.Latest()
	if !ok || latest.ID != "E1" {
		t.Errorf("Latest() = %v, want authoritative E1", latest.ID)
	}

	// Equal provenance: later insertion wins.
	s2 := NewStore("A1")
	s2.Upsert([]model.BidEvent{ev("E1", "B1", 5, 100, model.OriginRealtime)})
	s2.Upsert([]model.BidEvent{ev("E2", "B2", 5, 100, model.OriginRealtime)})
	latest, _ = s2.Latest()
	if latest.ID != "E2" {
		t.Errorf("Latest() = %v, want last inserted E2", latest.ID)
	}
}

func TestStore_Latest_Empty(t *testing.T) {
	s := NewStore("A1")
	if _, ok := s.Latest(); ok {
		t.Error("Latest() on empty store should report absence")
	}
	if !s.NewestOccurredAt().IsZero() {
		t.Error("NewestOccurredAt() on empty store should be zero")
	}
}

func TestStore_PriceState_StartingPriceFallback(t *testing.T) {
	s := NewStore("A1")
	start := decimal.NewFromInt(100000)

	ps := s.PriceState(start)
	if !ps.CurrentPrice.Equal(start) {
		t.Errorf("CurrentPrice = %s, want starting price", ps.CurrentPrice)
	}
	if ps.LastUpdatedEventID != "" {
		t.Errorf("LastUpdatedEventID = %q, want empty", ps.LastUpdatedEventID)
	}
}

func TestStore_PriceState_Monotonic(t *testing.T) {
	s := NewStore("A1")
	start := decimal.NewFromInt(100000)

	batches := [][]model.BidEvent{
		{ev("E1", "B1", 5, 110000, model.OriginRealtime)},
		{ev("E2", "B2", 10, 130000, model.OriginRealtime)},
		// A late-arriving older, lower event must not pull the price back.
		{ev("E3", "B3", 7, 120000, model.OriginAuthoritative)},
	}

	prev := s.PriceState(start).CurrentPrice
	for i, b := range batches {
		s.Upsert(b)
		cur := s.PriceState(start).CurrentPrice
		if cur.LessThan(prev) {
			t.Errorf("after batch %d price regressed: %s < %s", i, cur, prev)
		}
		prev = cur
	}

	if !prev.Equal(decimal.NewFromInt(130000)) {
		t.Errorf("final price = %s, want 130000", prev)
	}
}

func TestStore_PriceState_UsesNewPriceOverAmount(t *testing.T) {
	s := NewStore("A1")
	e := ev("E1", "B1", 5, 110000, model.OriginAuthoritative)
	e.NewPrice = decimal.NewFromInt(115000)
	s.Upsert([]model.BidEvent{e})

	ps := s.PriceState(decimal.Zero)
	if !ps.CurrentPrice.Equal(decimal.NewFromInt(115000)) {
		t.Errorf("CurrentPrice = %s, want snapshot new price", ps.CurrentPrice)
	}
	if ps.LastUpdatedEventID != "E1" {
		t.Errorf("LastUpdatedEventID = %q, want E1", ps.LastUpdatedEventID)
	}
}

func TestStore_RankedHistory_StableOnEqualTimestamps(t *testing.T) {
	s := NewStore("A1")
	s.Upsert([]model.BidEvent{
		ev("E1", "B1", 5, 100, model.OriginRealtime),
		ev("E2", "B2", 5, 100, model.OriginRealtime),
		ev("E3", "B3", 5, 100, model.OriginRealtime),
	})

	hist := s.RankedHistory()
	want := []string{"E1", "E2", "E3"}
	for i, id := range want {
		if hist[i].ID != id {
			t.Errorf("history[%d] = %s, want %s (insertion order preserved)", i, hist[i].ID, id)
		}
	}
}
