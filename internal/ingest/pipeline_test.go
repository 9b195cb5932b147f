package ingest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vutran/agribid/internal/api"
	"github.com/vutran/agribid/internal/model"
)

func TestPipeline_BidPlaced(t *testing.T) {
	p := NewPipeline("A1", nil, nil)

	payload := []byte(`{
		"auctionId": "A1",
		"bidId": "B1",
		"userId": "U1",
		"userName": "Binh",
		"bidAmount": 110000,
		"previousPrice": 100000,
		"newPrice": 110000,
		"placedAt": "2025-03-01T10:00:01.005Z"
	}`)

	ev, ok := p.BidPlaced(payload)
	if !ok {
		t.Fatal("expected event")
	}
	if ev.Origin != model.OriginRealtime {
		t.Errorf("Origin = %s, want realtime", ev.Origin)
	}
	if ev.BidID != "B1" || ev.Kind != model.KindCreated {
		t.Errorf("event = %+v", ev)
	}
	if !ev.Amount.Equal(decimal.NewFromInt(110000)) {
		t.Errorf("Amount = %s, want 110000", ev.Amount)
	}
	if !ev.NewPrice.Equal(decimal.NewFromInt(110000)) {
		t.Errorf("NewPrice = %s, want 110000", ev.NewPrice)
	}
	if ev.OccurredAt.UnixMilli() != time.Date(2025, 3, 1, 10, 0, 1, 5e6, time.UTC).UnixMilli() {
		t.Errorf("OccurredAt = %s", ev.OccurredAt)
	}
}

func TestPipeline_BidPlaced_Revised(t *testing.T) {
	p := NewPipeline("A1", nil, nil)

	ev, ok := p.BidPlaced([]byte(`{
		"auctionId": "A1",
		"bidId": "B1",
		"bidAmount": 120000,
		"revised": true,
		"placedAt": "2025-03-01T10:05:00.000Z"
	}`))
	if !ok {
		t.Fatal("expected event")
	}
	if ev.Kind != model.KindUpdated {
		t.Errorf("Kind = %s, want Updated for revised bid", ev.Kind)
	}
}

func TestPipeline_BidPlaced_WrongAuction(t *testing.T) {
	p := NewPipeline("Y", nil, nil)

	_, ok := p.BidPlaced([]byte(`{
		"auctionId": "X",
		"bidId": "B1",
		"bidAmount": 110000,
		"placedAt": "2025-03-01T10:00:01.000Z"
	}`))
	if ok {
		t.Error("event for auction X must be discarded by observer of Y")
	}
}

func TestPipeline_BidPlaced_Malformed(t *testing.T) {
	p := NewPipeline("A1", nil, nil)

	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"auctionId": "A1",`},
		{"bad timestamp", `{"auctionId":"A1","bidId":"B1","bidAmount":110000,"placedAt":"yesterday"}`},
		{"zero amount", `{"auctionId":"A1","bidId":"B1","bidAmount":0,"placedAt":"2025-03-01T10:00:01.000Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := p.BidPlaced([]byte(tt.payload)); ok {
				t.Error("malformed payload must be dropped")
			}
		})
	}
}

func TestPipeline_BuyNow(t *testing.T) {
	p := NewPipeline("A1", nil, nil)

	ev, ok := p.BuyNow([]byte(`{
		"auctionId": "A1",
		"userName": "Cuong Wholesale",
		"buyNowPrice": 500000,
		"purchasedAt": "2025-03-01T11:00:00.000Z"
	}`))
	if !ok {
		t.Fatal("expected event")
	}
	if ev.BidID != "" {
		t.Errorf("BidID = %q, want empty for buy-now", ev.BidID)
	}
	if !ev.NewPrice.Equal(decimal.NewFromInt(500000)) {
		t.Errorf("NewPrice = %s, want 500000", ev.NewPrice)
	}
	if ev.ID == "" {
		t.Error("buy-now event needs a synthetic ID")
	}
}

func TestPipeline_Optimistic(t *testing.T) {
	p := NewPipeline("A1", nil, nil)
	fixed := time.Date(2025, 3, 1, 10, 0, 1, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	receipt := api.BidReceipt{
		Accepted:  true,
		BidID:     "B1",
		AuctionID: "A1",
		Amount:    decimal.NewFromInt(110000),
	}

	ev := p.Optimistic(receipt, "U1", "Binh", model.KindCreated)

	if ev.Origin != model.OriginOptimistic {
		t.Errorf("Origin = %s, want optimistic", ev.Origin)
	}
	if !ev.OccurredAt.Equal(fixed) {
		t.Errorf("OccurredAt = %s, want client clock", ev.OccurredAt)
	}
	if ev.ID == "B1" || len(ev.ID) <= len("B1-opt-") {
		t.Errorf("ID = %q, want synthetic id derived from bid id", ev.ID)
	}
	if ev.BidID != "B1" {
		t.Errorf("BidID = %q, want real bid id for later supersession", ev.BidID)
	}

	// Distinct synthetic IDs across repeated writes for the same bid.
	other := p.Optimistic(receipt, "U1", "Binh", model.KindUpdated)
	if other.ID == ev.ID {
		t.Error("synthetic IDs must not collide")
	}
}

func TestPipeline_LogEntries(t *testing.T) {
	p := NewPipeline("A1", nil, nil)

	entries := []api.BidLogEntry{
		{
			ID:                "L1",
			BidID:             "B1",
			UserID:            "U1",
			UserName:          "Binh",
			Type:              "Created",
			DateTimeUpdate:    "2025-03-01T10:00:01.000Z",
			OldEntitySnapshot: `{"bid":{"amount":0},"auction":{"currentPrice":100000}}`,
			NewEntitySnapshot: `{"bid":{"amount":110000},"auction":{"currentPrice":110000}}`,
			CreatedAt:         "2025-03-01T10:00:01.000Z",
		},
		{
			ID:                "L2",
			BidID:             "B1",
			Type:              "Updated",
			IsAutoBidding:     true,
			DateTimeUpdate:    "2025-03-01T10:05:00.000Z",
			NewEntitySnapshot: `{"bid":{"amount":120000},"auction":{"currentPrice":120000}}`,
			CreatedAt:         "2025-03-01T10:00:01.000Z",
		},
	}

	events := p.LogEntries(entries)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	if events[0].Origin != model.OriginAuthoritative {
		t.Errorf("Origin = %s, want authoritative", events[0].Origin)
	}
	if !events[0].PreviousPrice.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("PreviousPrice = %s, want 100000 from old snapshot", events[0].PreviousPrice)
	}
	if events[1].Kind != model.KindUpdated || !events[1].IsAutoBid {
		t.Errorf("second event = %+v", events[1])
	}
	if !events[1].Amount.Equal(decimal.NewFromInt(120000)) {
		t.Errorf("Amount = %s, want 120000", events[1].Amount)
	}
}

func TestPipeline_LogEntries_DropsMalformedIndividually(t *testing.T) {
	p := NewPipeline("A1", nil, nil)

	entries := []api.BidLogEntry{
		{
			ID:                "L1",
			BidID:             "B1",
			Type:              "Created",
			DateTimeUpdate:    "2025-03-01T10:00:01.000Z",
			NewEntitySnapshot: `{"bid":{"amount":"not a number"}}`,
			CreatedAt:         "2025-03-01T10:00:01.000Z",
		},
		{
			ID:                "L2",
			BidID:             "B2",
			Type:              "Created",
			DateTimeUpdate:    "2025-03-01T10:00:02.000Z",
			NewEntitySnapshot: `{"bid":{"amount":120000},"auction":{"currentPrice":120000}}`,
			CreatedAt:         "2025-03-01T10:00:02.000Z",
		},
		{
			ID:                "L3",
			BidID:             "B3",
			Type:              "Teleported", // unknown kind
			DateTimeUpdate:    "2025-03-01T10:00:03.000Z",
			NewEntitySnapshot: `{"bid":{"amount":130000}}`,
			CreatedAt:         "2025-03-01T10:00:03.000Z",
		},
	}

	events := p.LogEntries(entries)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 (bad entries dropped, batch survives)", len(events))
	}
	if events[0].ID != "L2" {
		t.Errorf("surviving entry = %s, want L2", events[0].ID)
	}
}

func TestPipeline_LogEntries_TimestampFallback(t *testing.T) {
	p := NewPipeline("A1", nil, nil)

	events := p.LogEntries([]api.BidLogEntry{{
		ID:                "L1",
		BidID:             "B1",
		Type:              "Created",
		DateTimeUpdate:    "", // missing, falls back to createdAt
		NewEntitySnapshot: `{"bid":{"amount":110000}}`,
		CreatedAt:         "2025-03-01T10:00:01.000Z",
	}})
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].OccurredAt.IsZero() {
		t.Error("OccurredAt should come from createdAt fallback")
	}
}
