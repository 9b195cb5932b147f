package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the reconciliation engine.
// A nil *Metrics is valid everywhere and records nothing, so tests and
// library consumers can opt out.
type Metrics struct {
	RealtimeEvents       prometheus.Counter
	WrongAuctionDropped  prometheus.Counter
	MalformedDropped     prometheus.Counter
	OptimisticSuperseded prometheus.Counter
	StaleFetches         prometheus.Counter
	FetchesAccepted      prometheus.Counter
	FetchesExhausted     prometheus.Counter
	FetchErrors          prometheus.Counter
	ArchiveInserts       prometheus.Counter
	ArchiveErrors        prometheus.Counter
}

// New registers and returns all engine metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RealtimeEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agribid_realtime_events_total",
			Help: "Real-time push events received for observed auctions",
		}),
		WrongAuctionDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agribid_wrong_auction_dropped_total",
			Help: "Real-time events discarded because they belong to another auction",
		}),
		MalformedDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agribid_malformed_dropped_total",
			Help: "Individual events dropped due to unparseable payloads or snapshots",
		}),
		OptimisticSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agribid_optimistic_superseded_total",
			Help: "Optimistic placeholder events replaced by server-sourced events",
		}),
		StaleFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agribid_stale_fetches_total",
			Help: "Authoritative fetches returning data older than the local store",
		}),
		FetchesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agribid_fetches_accepted_total",
			Help: "Authoritative fetches merged into the store",
		}),
		FetchesExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agribid_fetches_exhausted_total",
			Help: "Fetch attempts abandoned after the retry budget was spent",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agribid_fetch_errors_total",
			Help: "Authoritative fetches that failed at the transport level",
		}),
		ArchiveInserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agribid_archive_inserts_total",
			Help: "Bid events persisted by the archive writer",
		}),
		ArchiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agribid_archive_errors_total",
			Help: "Archive writer batch insert failures",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RealtimeEvents,
			m.WrongAuctionDropped,
			m.MalformedDropped,
			m.OptimisticSuperseded,
			m.StaleFetches,
			m.FetchesAccepted,
			m.FetchesExhausted,
			m.FetchErrors,
			m.ArchiveInserts,
			m.ArchiveErrors,
		)
	}

	return m
}

// IncRealtimeEvents is nil-safe.
func (m *Metrics) IncRealtimeEvents() {
	if m != nil {
		m.RealtimeEvents.Inc()
	}
}

// IncWrongAuctionDropped is nil-safe.
func (m *Metrics) IncWrongAuctionDropped() {
	if m != nil {
		m.WrongAuctionDropped.Inc()
	}
}

// IncMalformedDropped is nil-safe.
func (m *Metrics) IncMalformedDropped() {
	if m != nil {
		m.MalformedDropped.Inc()
	}
}

// IncOptimisticSuperseded is nil-safe.
func (m *Metrics) IncOptimisticSuperseded(n int) {
	if m != nil && n > 0 {
		m.OptimisticSuperseded.Add(float64(n))
	}
}

// IncStaleFetches is nil-safe.
func (m *Metrics) IncStaleFetches() {
	if m != nil {
		m.StaleFetches.Inc()
	}
}

// IncFetchesAccepted is nil-safe.
func (m *Metrics) IncFetchesAccepted() {
	if m != nil {
		m.FetchesAccepted.Inc()
	}
}

// IncFetchesExhausted is nil-safe.
func (m *Metrics) IncFetchesExhausted() {
	if m != nil {
		m.FetchesExhausted.Inc()
	}
}

// IncFetchErrors is nil-safe.
func (m *Metrics) IncFetchErrors() {
	if m != nil {
		m.FetchErrors.Inc()
	}
}

// AddArchiveInserts is nil-safe.
func (m *Metrics) AddArchiveInserts(n int) {
	if m != nil && n > 0 {
		m.ArchiveInserts.Add(float64(n))
	}
}

// IncArchiveErrors is nil-safe.
func (m *Metrics) IncArchiveErrors() {
	if m != nil {
		m.ArchiveErrors.Inc()
	}
}
