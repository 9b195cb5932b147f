package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL              = "https://api.agrimarket.example/v1"
	DefaultHubURL               = "wss://hub.agrimarket.example/live"
	DefaultAPITimeout           = 30 * time.Second
	DefaultAPIMaxRetries        = 3
	DefaultHubWriteTimeout      = 5 * time.Second
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultReconnectMaxDelay    = 60 * time.Second
	DefaultQueueSize            = 256
	DefaultReconcileMaxRetries  = 2
	DefaultReconcileBackoffStep = 300 * time.Millisecond
	DefaultFetchTimeout         = 10 * time.Second
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 10
	DefaultMinConns             = 2
	DefaultBatchSize            = 200
	DefaultFlushInterval        = 5 * time.Second
	DefaultBufferSize           = 4096
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
)

func (c *WatcherConfig) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultAPIMaxRetries
	}

	// Hub defaults
	if c.Hub.URL == "" {
		c.Hub.URL = DefaultHubURL
	}
	if c.Hub.WriteTimeout == 0 {
		c.Hub.WriteTimeout = DefaultHubWriteTimeout
	}
	if c.Hub.ReconnectBaseDelay == 0 {
		c.Hub.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Hub.ReconnectMaxDelay == 0 {
		c.Hub.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}

	// Auctions defaults
	if c.Auctions.QueueSize == 0 {
		c.Auctions.QueueSize = DefaultQueueSize
	}

	// Reconcile defaults
	if c.Reconcile.MaxRetries == 0 {
		c.Reconcile.MaxRetries = DefaultReconcileMaxRetries
	}
	if c.Reconcile.BackoffStep == 0 {
		c.Reconcile.BackoffStep = DefaultReconcileBackoffStep
	}
	if c.Reconcile.FetchTimeout == 0 {
		c.Reconcile.FetchTimeout = DefaultFetchTimeout
	}

	// Archive defaults
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = DefaultBatchSize
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = DefaultFlushInterval
	}
	if c.Archive.BufferSize == 0 {
		c.Archive.BufferSize = DefaultBufferSize
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
