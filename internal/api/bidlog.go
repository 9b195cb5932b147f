package api

import (
	"context"
	"fmt"
	"net/url"
)

// GetBidLog fetches the authoritative bid log for one auction, ordered by
// the server. Entries with unparseable snapshots are passed through as-is;
// the ingestion pipeline drops them individually.
func (c *Client) GetBidLog(ctx context.Context, auctionID string) ([]BidLogEntry, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("auction id is required")
	}

	var resp BidLogResponse
	path := "/auctions/" + url.PathEscape(auctionID) + "/bid-log"
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get bid log: %w", err)
	}

	return resp.Entries, nil
}
