package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vutran/agribid/internal/ingest"
	"github.com/vutran/agribid/internal/metrics"
	"github.com/vutran/agribid/internal/model"
)

// Writer consumes confirmed bid events from the observation buffer and
// appends them to the bid_events table. Append-only: rows are never
// updated, and redelivery is absorbed by ON CONFLICT DO NOTHING on the
// dedup key.
type Writer struct {
	cfg    Config
	logger *slog.Logger

	// Input from the observation loops
	input *ingest.Buffer[model.BidEvent]

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []eventRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stats   Stats
	metrics *metrics.Metrics
}

// NewWriter creates an archive writer.
func NewWriter(
	cfg Config,
	input *ingest.Buffer[model.BidEvent],
	db *pgxpool.Pool,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	return &Writer{
		cfg:     cfg,
		input:   input,
		db:      db,
		logger:  logger,
		metrics: m,
		batch:   make([]eventRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming events and writing to the database.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("archive writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop drains outstanding rows and shuts the writer down.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping archive writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("archive writer stopped")
	case <-ctx.Done():
		w.logger.Warn("archive writer stop timed out")
	}

	// Final flush
	w.flush()

	return nil
}

// Stats returns current counters.
func (w *Writer) Stats() Stats {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.stats
}

// consumeLoop reads from the input buffer and accumulates batches.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			ev, ok := w.input.TryReceive()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleEvent(ev)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// handleEvent transforms and adds an event to the batch.
func (w *Writer) handleEvent(ev model.BidEvent) {
	row := w.transform(ev)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

// transform converts a BidEvent to an eventRow.
func (w *Writer) transform(ev model.BidEvent) eventRow {
	return eventRow{
		EventID:    ev.ID,
		DedupKey:   ev.DedupKey(),
		BidID:      ev.BidID,
		AuctionID:  ev.AuctionID,
		UserID:     ev.UserID,
		UserName:   ev.UserName,
		Kind:       string(ev.Kind),
		IsAutoBid:  ev.IsAutoBid,
		Amount:     ev.Amount.String(),
		NewPrice:   ev.EffectivePrice().String(),
		OccurredAt: ev.OccurredAt.UnixMicro(),
		Origin:     string(ev.Origin),
		ReceivedAt: time.Now().UnixMicro(),
	}
}

// flush writes the current batch to the database.
func (w *Writer) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]eventRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.metrics.IncArchiveErrors()
		w.batchMu.Lock()
		w.stats.Errors++
		w.batchMu.Unlock()
		return
	}

	w.metrics.AddArchiveInserts(len(batch) - conflicts)
	w.batchMu.Lock()
	w.stats.Inserts += int64(len(batch) - conflicts)
	w.stats.Conflicts += int64(conflicts)
	w.stats.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed bid events",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *Writer) batchInsert(rows []eventRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO bid_events (event_id, dedup_key, bid_id, auction_id, user_id, user_name, kind, is_auto_bid, amount, new_price, occurred_at, origin, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (dedup_key) DO NOTHING
		`, r.EventID, r.DedupKey, r.BidID, r.AuctionID, r.UserID, r.UserName, r.Kind, r.IsAutoBid, r.Amount, r.NewPrice, r.OccurredAt, r.Origin, r.ReceivedAt)
	}

	results := w.db.SendBatch(w.ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
