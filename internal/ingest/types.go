package ingest

import (
	"github.com/shopspring/decimal"
)

// bidPlacedWire is the push payload for a bid-placed notification.
type bidPlacedWire struct {
	AuctionID     string          `json:"auctionId"`
	BidID         string          `json:"bidId"`
	UserID        string          `json:"userId"`
	UserName      string          `json:"userName"`
	BidAmount     decimal.Decimal `json:"bidAmount"`
	PreviousPrice decimal.Decimal `json:"previousPrice"`
	NewPrice      decimal.Decimal `json:"newPrice"`
	IsAutoBid     bool            `json:"isAutoBid"`
	Revised       bool            `json:"revised"` // true when an existing bid was raised
	PlacedAt      string          `json:"placedAt"`
}

// buyNowWire is the push payload for a buy-now notification.
type buyNowWire struct {
	AuctionID   string          `json:"auctionId"`
	UserName    string          `json:"userName"`
	BuyNowPrice decimal.Decimal `json:"buyNowPrice"`
	PurchasedAt string          `json:"purchasedAt"`
}

// entitySnapshot is the JSON structure embedded (string-encoded) in a bid
// log entry: the bid amount and auction price at that revision.
type entitySnapshot struct {
	Bid struct {
		Amount decimal.Decimal `json:"amount"`
	} `json:"bid"`
	Auction struct {
		CurrentPrice decimal.Decimal `json:"currentPrice"`
	} `json:"auction"`
}
