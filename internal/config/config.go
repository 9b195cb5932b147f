package config

import "time"

// WatcherConfig is the root configuration for a bid watcher instance.
type WatcherConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	API       APIConfig       `yaml:"api"`
	Hub       HubConfig       `yaml:"hub"`
	Auctions  AuctionsConfig  `yaml:"auctions"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Database  DatabaseConfig  `yaml:"database"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// InstanceConfig identifies this watcher.
type InstanceConfig struct {
	ID     string `yaml:"id"`
	Region string `yaml:"region"`
}

// APIConfig holds marketplace REST API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// HubConfig holds real-time hub settings.
type HubConfig struct {
	URL                string        `yaml:"url"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
}

// AuctionsConfig names the auctions to observe.
type AuctionsConfig struct {
	IDs       []string `yaml:"ids"`
	QueueSize int      `yaml:"queue_size"`
}

// ReconcileConfig holds authoritative-fetch retry settings.
type ReconcileConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	BackoffStep  time.Duration `yaml:"backoff_step"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// ArchiveConfig holds batch archive writer settings. The archive is
// optional; when disabled no database connection is made.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DatabaseConfig holds the PostgreSQL connection for the bid event archive.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
