package api

import (
	"context"
	"fmt"
	"net/url"
)

// GetAuction fetches auction metadata (starting price, increment, end time).
func (c *Client) GetAuction(ctx context.Context, auctionID string) (*APIAuction, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("auction id is required")
	}

	var auction APIAuction
	path := "/auctions/" + url.PathEscape(auctionID)
	if err := c.get(ctx, path, nil, &auction); err != nil {
		return nil, fmt.Errorf("get auction: %w", err)
	}

	return &auction, nil
}
