package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vutran/agribid/internal/model"
)

// BidLogEntry is one entry of the authoritative bid-log response. The
// entity snapshots are JSON-encoded strings carrying the bid amount and
// auction price at that revision; the ingestion pipeline decodes them.
type BidLogEntry struct {
	ID                string `json:"id"`
	BidID             string `json:"bidId"`
	UserID            string `json:"userId"`
	UserName          string `json:"userName"`
	Type              string `json:"type"` // "Created" or "Updated"
	IsAutoBidding     bool   `json:"isAutoBidding"`
	DateTimeUpdate    string `json:"dateTimeUpdate"`
	OldEntitySnapshot string `json:"oldEntitySnapshot"`
	NewEntitySnapshot string `json:"newEntitySnapshot"`
	CreatedAt         string `json:"createdAt"`
}

// BidLogResponse is the authoritative bid-log fetch response.
type BidLogResponse struct {
	AuctionID string        `json:"auctionId"`
	Entries   []BidLogEntry `json:"entries"`
}

// PlaceBidRequest is the synchronous bid write payload.
type PlaceBidRequest struct {
	AuctionID  string          `json:"auctionId"`
	Amount     decimal.Decimal `json:"amount"`
	IsAutoBid  bool            `json:"isAutoBid"`
	MaxAutoBid decimal.Decimal `json:"maxAutoBid,omitempty"`
}

// BidReceipt is the synchronous write response: enough for the caller to
// synthesize an optimistic event before any asynchronous confirmation.
type BidReceipt struct {
	Accepted  bool            `json:"accepted"`
	Message   string          `json:"message,omitempty"`
	BidID     string          `json:"bidId"`
	AuctionID string          `json:"auctionId"`
	Amount    decimal.Decimal `json:"amount"`
	IsAutoBid bool            `json:"isAutoBid"`
}

// BuyNowReceipt is the response to a buy-now write.
type BuyNowReceipt struct {
	Accepted  bool            `json:"accepted"`
	Message   string          `json:"message,omitempty"`
	AuctionID string          `json:"auctionId"`
	Price     decimal.Decimal `json:"price"`
}

// APIAuction is the auction metadata wire shape.
type APIAuction struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	SellerID      string          `json:"sellerId"`
	SellerName    string          `json:"sellerName"`
	StartingPrice decimal.Decimal `json:"startingPrice"`
	BidIncrement  decimal.Decimal `json:"bidIncrement"`
	BuyNowPrice   decimal.Decimal `json:"buyNowPrice"`
	StartsAt      time.Time       `json:"startsAt"`
	EndsAt        time.Time       `json:"endsAt"`
	Status        string          `json:"status"`
}

// ToModel converts an APIAuction to the internal model.
func (a APIAuction) ToModel() model.Auction {
	return model.Auction{
		ID:            a.ID,
		Title:         a.Title,
		SellerID:      a.SellerID,
		SellerName:    a.SellerName,
		StartingPrice: a.StartingPrice,
		BidIncrement:  a.BidIncrement,
		BuyNowPrice:   a.BuyNowPrice,
		StartsAt:      a.StartsAt,
		EndsAt:        a.EndsAt,
		Status:        a.Status,
	}
}
