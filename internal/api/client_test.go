package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestClient_GetAuction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auctions/A1" {
			t.Errorf("path = %s, want /auctions/A1", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":            "A1",
			"title":         "Da Lat carrots, 500kg",
			"sellerId":      "S1",
			"sellerName":    "Hoa Farm",
			"startingPrice": 100000,
			"bidIncrement":  10000,
			"startsAt":      "2025-03-01T09:00:00.000Z",
			"endsAt":        "2025-03-01T12:00:00.000Z",
			"status":        "open",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")

	auction, err := client.GetAuction(context.Background(), "A1")
	if err != nil {
		t.Fatalf("GetAuction failed: %v", err)
	}

	m := auction.ToModel()
	if m.ID != "A1" {
		t.Errorf("ID = %s, want A1", m.ID)
	}
	if !m.StartingPrice.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("StartingPrice = %s, want 100000", m.StartingPrice)
	}
	if !m.BidIncrement.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("BidIncrement = %s, want 10000", m.BidIncrement)
	}
	if m.EndsAt.IsZero() {
		t.Error("EndsAt not parsed")
	}
}

func TestClient_GetBidLog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auctions/A1/bid-log" {
			t.Errorf("path = %s, want /auctions/A1/bid-log", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"auctionId": "A1",
			"entries": []map[string]any{
				{
					"id":                "L1",
					"bidId":             "B1",
					"userId":            "U1",
					"userName":          "Binh",
					"type":              "Created",
					"isAutoBidding":     false,
					"dateTimeUpdate":    "2025-03-01T10:00:01.000Z",
					"newEntitySnapshot": `{"bid":{"amount":110000},"auction":{"currentPrice":110000}}`,
					"createdAt":         "2025-03-01T10:00:01.000Z",
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")

	entries, err := client.GetBidLog(context.Background(), "A1")
	if err != nil {
		t.Fatalf("GetBidLog failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].BidID != "B1" || entries[0].Type != "Created" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestClient_GetBidLog_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"auctionId": "A1", "entries": []any{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", WithRetries(3, time.Millisecond))

	if _, err := client.GetBidLog(context.Background(), "A1"); err != nil {
		t.Fatalf("GetBidLog failed after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClient_PlaceBid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req PlaceBidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !req.Amount.Equal(decimal.NewFromInt(110000)) {
			t.Errorf("Amount = %s, want 110000", req.Amount)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(BidReceipt{
			Accepted:  true,
			BidID:     "B1",
			AuctionID: "A1",
			Amount:    req.Amount,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")

	receipt, err := client.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "A1",
		Amount:    decimal.NewFromInt(110000),
	})
	if err != nil {
		t.Fatalf("PlaceBid failed: %v", err)
	}
	if !receipt.Accepted || receipt.BidID != "B1" {
		t.Errorf("receipt = %+v", receipt)
	}
}

func TestClient_PlaceBid_DoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", WithRetries(3, time.Millisecond))

	_, err := client.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "A1",
		Amount:    decimal.NewFromInt(110000),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (writes must not be replayed)", calls.Load())
	}
}

func TestClient_APIError(t *testing.T) {
	e := &APIError{StatusCode: 429, Message: "Too Many Requests"}
	if !e.IsRetryable() {
		t.Error("429 should be retryable")
	}
	e = &APIError{StatusCode: 404, Message: "Not Found"}
	if e.IsRetryable() {
		t.Error("404 should not be retryable")
	}
}
