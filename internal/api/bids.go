package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
)

// PlaceBid submits a new bid against the synchronous write endpoint. The
// receipt carries everything needed to synthesize an optimistic event
// before any asynchronous confirmation arrives.
func (c *Client) PlaceBid(ctx context.Context, req PlaceBidRequest) (*BidReceipt, error) {
	if req.AuctionID == "" {
		return nil, fmt.Errorf("auction id is required")
	}

	var receipt BidReceipt
	path := "/auctions/" + url.PathEscape(req.AuctionID) + "/bids"
	if err := c.post(ctx, path, req, &receipt); err != nil {
		return nil, fmt.Errorf("place bid: %w", err)
	}

	return &receipt, nil
}

// UpdateBid revises an existing bid (e.g. raising a proxy-bid ceiling).
func (c *Client) UpdateBid(ctx context.Context, auctionID, bidID string, amount decimal.Decimal) (*BidReceipt, error) {
	if auctionID == "" || bidID == "" {
		return nil, fmt.Errorf("auction id and bid id are required")
	}

	payload := struct {
		Amount decimal.Decimal `json:"amount"`
	}{Amount: amount}

	var receipt BidReceipt
	path := "/auctions/" + url.PathEscape(auctionID) + "/bids/" + url.PathEscape(bidID)
	if err := c.put(ctx, path, payload, &receipt); err != nil {
		return nil, fmt.Errorf("update bid: %w", err)
	}

	return &receipt, nil
}

// BuyNow purchases the auction outright at its buy-now price.
func (c *Client) BuyNow(ctx context.Context, auctionID string) (*BuyNowReceipt, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("auction id is required")
	}

	var receipt BuyNowReceipt
	path := "/auctions/" + url.PathEscape(auctionID) + "/buy-now"
	if err := c.post(ctx, path, struct{}{}, &receipt); err != nil {
		return nil, fmt.Errorf("buy now: %w", err)
	}

	return &receipt, nil
}
