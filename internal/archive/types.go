package archive

import (
	"time"
)

// Config contains batching settings for the archive writer.
type Config struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     200,
		FlushInterval: 5 * time.Second,
	}
}

// eventRow is a row for the bid_events table. Prices are stored as numeric
// strings to keep the decimal exact.
type eventRow struct {
	EventID    string
	DedupKey   string
	BidID      string
	AuctionID  string
	UserID     string
	UserName   string
	Kind       string
	IsAutoBid  bool
	Amount     string
	NewPrice   string
	OccurredAt int64 // Microseconds
	Origin     string
	ReceivedAt int64 // Microseconds
}

// Stats is a point-in-time view of writer counters.
type Stats struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}
