package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/vutran/agribid/internal/bidlog"
	"github.com/vutran/agribid/internal/metrics"
	"github.com/vutran/agribid/internal/model"
)

// State is the outcome classification of one fetch attempt.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateAccepted
	StateRetryScheduled
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateAccepted:
		return "accepted"
	case StateRetryScheduled:
		return "retry_scheduled"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Fetcher performs one authoritative bid-log fetch, already normalized into
// bid events.
type Fetcher interface {
	FetchBidLog(ctx context.Context, auctionID string) ([]model.BidEvent, error)
}

// FetcherFunc is a function adapter for Fetcher.
type FetcherFunc func(ctx context.Context, auctionID string) ([]model.BidEvent, error)

func (f FetcherFunc) FetchBidLog(ctx context.Context, auctionID string) ([]model.BidEvent, error) {
	return f(ctx, auctionID)
}

// Config holds reconciliation policy settings.
type Config struct {
	MaxRetries  int           // retries after the initial attempt (default: 2)
	BackoffStep time.Duration // delay = BackoffStep × attempt (default: 300ms)
	Timeout     time.Duration // per-fetch timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  2,
		BackoffStep: 300 * time.Millisecond,
		Timeout:     10 * time.Second,
	}
}

// Outcome reports what one attempt decided.
type Outcome struct {
	State   State
	Attempt int
	RetryIn time.Duration       // set when State == StateRetryScheduled
	Result  bidlog.UpsertResult // set when State == StateAccepted
}

// Policy governs when to trust an authoritative fetch over what the store
// already holds, and how the retry chain against read-after-write lag
// behaves. The policy itself owns no timers; the observation loop schedules
// retries using Outcome.RetryIn, which keeps cancellation in one place.
type Policy struct {
	cfg     Config
	store   *bidlog.Store
	fetcher Fetcher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPolicy creates a policy bound to one store.
func NewPolicy(cfg Config, store *bidlog.Store, fetcher Fetcher, logger *slog.Logger, m *metrics.Metrics) *Policy {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.BackoffStep == 0 {
		cfg.BackoffStep = DefaultConfig().BackoffStep
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		logger:  logger,
		metrics: m,
	}
}

// Attempt executes one fetch attempt (1-based) and classifies the result.
//
// The fetched batch is accepted when its newest timestamp is at least as
// recent as the store's; the store's upsert then merges it and retires any
// optimistic placeholders the batch confirms. A staler batch never touches
// the store: with retry budget left the outcome is RetryScheduled, after
// that Exhausted, leaving optimistic/realtime state authoritative from the
// client's point of view.
func (p *Policy) Attempt(ctx context.Context, attempt int) Outcome {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	events, err := p.fetcher.FetchBidLog(fetchCtx, p.store.AuctionID())
	if err != nil {
		p.logger.Warn("bid log fetch failed",
			"auction_id", p.store.AuctionID(),
			"attempt", attempt,
			"err", err,
		)
		p.metrics.IncFetchErrors()
		return p.reject(attempt)
	}

	if p.isStale(events) {
		p.logger.Debug("bid log fetch is stale",
			"auction_id", p.store.AuctionID(),
			"attempt", attempt,
			"fetched", len(events),
			"held", p.store.Len(),
		)
		p.metrics.IncStaleFetches()
		return p.reject(attempt)
	}

	res := p.store.Upsert(events)
	p.metrics.IncFetchesAccepted()
	p.metrics.IncOptimisticSuperseded(res.OptimisticRetired)

	p.logger.Debug("bid log fetch accepted",
		"auction_id", p.store.AuctionID(),
		"attempt", attempt,
		"added", res.Added,
		"replaced", res.Replaced,
		"optimistic_retired", res.OptimisticRetired,
	)

	return Outcome{State: StateAccepted, Attempt: attempt, Result: res}
}

// reject turns a failed or stale attempt into RetryScheduled or Exhausted.
func (p *Policy) reject(attempt int) Outcome {
	if attempt <= p.cfg.MaxRetries {
		return Outcome{
			State:   StateRetryScheduled,
			Attempt: attempt,
			RetryIn: time.Duration(attempt) * p.cfg.BackoffStep,
		}
	}

	p.metrics.IncFetchesExhausted()
	return Outcome{State: StateExhausted, Attempt: attempt}
}

// isStale reports whether the fetched batch is older than what the store
// holds. Timestamp comparison is primary; record count is the fallback
// only when the batch carries no timestamps.
func (p *Policy) isStale(events []model.BidEvent) bool {
	if p.store.Len() == 0 {
		return false // empty store: anything is an improvement
	}

	var newest time.Time
	for _, ev := range events {
		if ev.OccurredAt.After(newest) {
			newest = ev.OccurredAt
		}
	}

	held := p.store.NewestOccurredAt()
	if held.IsZero() || newest.IsZero() {
		return len(events) < p.store.Len()
	}
	return newest.Before(held)
}
