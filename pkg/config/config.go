package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
)

// DefaultEventSignature is the DonationReceived event emitted by the donation token contract.
const DefaultEventSignature = "DonationReceived(address indexed donor, uint256 amount, string cause, " +
	"uint256 donationId, uint256 timestamp)"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the complete configuration for the donation indexer.
type Config struct {
	// Chain contains the node endpoint and the watched contract
	Chain ChainConfig `yaml:"chain" json:"chain" toml:"chain"`

	// Indexer contains the polling loop configuration
	Indexer IndexerConfig `yaml:"indexer" json:"indexer" toml:"indexer"`

	// DB contains the event store configuration
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`

	// API contains the HTTP/WebSocket server configuration
	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`
}

// ChainConfig describes the chain node and the contract whose events are indexed.
type ChainConfig struct {
	// RPCEndpoint is the JSON-RPC endpoint URL of the chain node
	RPCEndpoint string `yaml:"rpc_endpoint" json:"rpc_endpoint" toml:"rpc_endpoint"`

	// ContractAddress is the address of the contract emitting donation events
	ContractAddress string `yaml:"contract_address" json:"contract_address" toml:"contract_address"`

	// EventABISignature is the human readable event signature
	// Format: "EventName(type [indexed] name, ...)"
	EventABISignature string `yaml:"event_abi_signature" json:"event_abi_signature" toml:"event_abi_signature"`

	// ChainID is the expected chain id, 0 disables the startup check
	ChainID uint64 `yaml:"chain_id" json:"chain_id" toml:"chain_id"`

	// Contracts are additional named contract addresses reported by the API
	Contracts map[string]string `yaml:"contracts,omitempty" json:"contracts,omitempty" toml:"contracts,omitempty"`
}

// ApplyDefaults sets default values for optional chain configuration fields.
func (c *ChainConfig) ApplyDefaults() {
	if c.EventABISignature == "" {
		c.EventABISignature = DefaultEventSignature
	}
	if c.Contracts == nil {
		c.Contracts = make(map[string]string)
	}
}

// Validate checks the chain configuration.
func (c *ChainConfig) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("chain.rpc_endpoint is required")
	}

	if c.ContractAddress == "" {
		return fmt.Errorf("chain.contract_address is required")
	}

	if !ethcommon.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("chain.contract_address: invalid address %q", c.ContractAddress)
	}

	for name, addr := range c.Contracts {
		if !ethcommon.IsHexAddress(addr) {
			return fmt.Errorf("chain.contracts[%s]: invalid address %q", name, addr)
		}
	}

	return nil
}

// Address returns the parsed contract address.
func (c *ChainConfig) Address() ethcommon.Address {
	return ethcommon.HexToAddress(c.ContractAddress)
}

// IndexerConfig configures the polling loop.
type IndexerConfig struct {
	// PollingIntervalSeconds is the pause between polling cycles
	PollingIntervalSeconds uint64 `yaml:"polling_interval_seconds" json:"polling_interval_seconds" toml:"polling_interval_seconds"` //nolint:lll

	// ConfirmationDepth is the number of most recent blocks withheld from processing
	ConfirmationDepth uint64 `yaml:"confirmation_depth" json:"confirmation_depth" toml:"confirmation_depth"`

	// MaxBlockSpanPerQuery caps the block range of a single eth_getLogs call
	MaxBlockSpanPerQuery uint64 `yaml:"max_block_span_per_query" json:"max_block_span_per_query" toml:"max_block_span_per_query"` //nolint:lll

	// StartBlock is the first block processed when no cursor is stored
	StartBlock uint64 `yaml:"start_block" json:"start_block" toml:"start_block"`

	// Backoff configures the delay after failed cycles
	Backoff *BackoffConfig `yaml:"backoff,omitempty" json:"backoff,omitempty" toml:"backoff,omitempty"`

	// Reorg configures block hash verification
	Reorg *ReorgConfig `yaml:"reorg,omitempty" json:"reorg,omitempty" toml:"reorg,omitempty"`

	// Anomaly flags donations that are unusually large for their donor
	Anomaly *AnomalyConfig `yaml:"anomaly,omitempty" json:"anomaly,omitempty" toml:"anomaly,omitempty"`
}

// ApplyDefaults sets default values for optional indexer configuration fields.
func (i *IndexerConfig) ApplyDefaults() {
	if i.PollingIntervalSeconds == 0 {
		i.PollingIntervalSeconds = 2
	}
	if i.MaxBlockSpanPerQuery == 0 {
		i.MaxBlockSpanPerQuery = 2000
	}
	// ConfirmationDepth defaults to 0 (zero value)
	if i.Backoff == nil {
		i.Backoff = &BackoffConfig{}
	}
	i.Backoff.ApplyDefaults()

	if i.Reorg != nil {
		i.Reorg.ApplyDefaults()
	}
	if i.Anomaly != nil {
		i.Anomaly.ApplyDefaults()
	}
}

// PollingInterval returns the polling interval as a duration.
func (i *IndexerConfig) PollingInterval() time.Duration {
	return time.Duration(i.PollingIntervalSeconds) * time.Second
}

// BackoffConfig represents the exponential backoff applied after failed cycles.
type BackoffConfig struct {
	// InitialBackoff is the base delay, multiplied by BackoffMultiplier once per consecutive failure
	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for backoff configuration.
func (b *BackoffConfig) ApplyDefaults() {
	if b.InitialBackoff.Duration == 0 {
		b.InitialBackoff = common.NewDuration(1 * time.Second)
	}
	if b.MaxBackoff.Duration == 0 {
		b.MaxBackoff = common.NewDuration(time.Minute)
	}
	if b.BackoffMultiplier == 0 {
		b.BackoffMultiplier = 2.0
	}
}

// Validate checks the backoff configuration.
func (b *BackoffConfig) Validate() error {
	if b.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff_multiplier must be >= 1")
	}
	if b.MaxBackoff.Duration < b.InitialBackoff.Duration {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	return nil
}

// ReorgConfig configures chain reorganization detection.
type ReorgConfig struct {
	// Enabled turns on block hash verification before every cycle
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// HistorySize is the number of processed block hashes kept for verification
	HistorySize int `yaml:"history_size" json:"history_size" toml:"history_size"`
}

// ApplyDefaults sets default values for reorg configuration.
func (r *ReorgConfig) ApplyDefaults() {
	if r.HistorySize == 0 {
		r.HistorySize = 64
	}
}

// IsEnabled reports whether reorg detection is configured and enabled.
func (r *ReorgConfig) IsEnabled() bool {
	return r != nil && r.Enabled
}

// AnomalyConfig configures the large-donation check run on every newly stored event.
type AnomalyConfig struct {
	// Enabled turns on the check
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// Factor flags a donation larger than Factor times the mean of the donor's history
	Factor uint64 `yaml:"factor" json:"factor" toml:"factor"`

	// HistorySize is the number of the donor's most recent earlier donations averaged
	HistorySize int `yaml:"history_size" json:"history_size" toml:"history_size"`
}

// ApplyDefaults sets default values for anomaly configuration.
func (a *AnomalyConfig) ApplyDefaults() {
	if a.Factor == 0 {
		a.Factor = 5
	}
	if a.HistorySize == 0 {
		a.HistorySize = 50
	}
}

// IsEnabled reports whether the anomaly check is configured and enabled.
func (a *AnomalyConfig) IsEnabled() bool {
	return a != nil && a.Enabled
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	// Driver selects the store implementation: "sqlite" or "postgres"
	Driver string `yaml:"driver" json:"driver" toml:"driver"`

	// Path is the file path to the SQLite database
	Path string `yaml:"path" json:"path" toml:"path"`

	// DSN is the Postgres connection string
	DSN string `yaml:"dsn" json:"dsn" toml:"dsn"`

	// JournalMode sets the SQLite journal mode (e.g., "WAL", "DELETE")
	// WAL mode is recommended for better concurrency
	JournalMode string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`

	// Synchronous sets the synchronization level ("FULL", "NORMAL", "OFF")
	Synchronous string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`

	// BusyTimeout is the time in milliseconds to wait when the database is locked
	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`

	// CacheSize is the size of the page cache (negative = KB, positive = pages)
	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`

	// MaxOpenConnections is the maximum number of open database connections
	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`

	// EnableForeignKeys enables foreign key constraint enforcement
	EnableForeignKeys bool `yaml:"enable_foreign_keys" json:"enable_foreign_keys" toml:"enable_foreign_keys"`

	// Maintenance contains optional SQLite maintenance settings
	Maintenance *MaintenanceConfig `yaml:"maintenance,omitempty" json:"maintenance,omitempty" toml:"maintenance,omitempty"`
}

// ApplyDefaults sets default values for optional database configuration fields.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.Driver == "" {
		d.Driver = DriverSQLite
	}
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		d.Synchronous = "NORMAL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 5000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 25
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
	if d.Maintenance != nil {
		d.Maintenance.ApplyDefaults()
	}
}

// Validate checks the database configuration.
func (d *DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverSQLite:
		if d.Path == "" {
			return fmt.Errorf("db.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if d.DSN == "" {
			return fmt.Errorf("db.dsn is required for the postgres driver")
		}
		return nil
	default:
		return fmt.Errorf("db.driver must be one of: sqlite, postgres")
	}

	if d.JournalMode != "" &&
		!slices.Contains([]string{"WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY"}, d.JournalMode) {
		return fmt.Errorf("db.journal_mode must be one of: WAL, DELETE, TRUNCATE, PERSIST, MEMORY")
	}

	if d.Synchronous != "" && !slices.Contains([]string{"FULL", "NORMAL", "OFF"}, d.Synchronous) {
		return fmt.Errorf("db.synchronous must be one of: FULL, NORMAL, OFF")
	}

	if d.Maintenance != nil {
		if err := d.Maintenance.Validate(); err != nil {
			return fmt.Errorf("db.maintenance: %w", err)
		}
	}

	return nil
}

// MaintenanceConfig configures periodic SQLite maintenance.
type MaintenanceConfig struct {
	// Enabled controls whether background maintenance runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// CheckInterval is how often to run maintenance (e.g., "30m", "1h")
	CheckInterval common.Duration `yaml:"check_interval" json:"check_interval" toml:"check_interval"`

	// VacuumOnStartup runs VACUUM once before indexing starts
	VacuumOnStartup bool `yaml:"vacuum_on_startup" json:"vacuum_on_startup" toml:"vacuum_on_startup"`

	// WALCheckpointMode controls the WAL checkpoint aggressiveness
	// Options: PASSIVE, FULL, RESTART, TRUNCATE
	WALCheckpointMode string `yaml:"wal_checkpoint_mode" json:"wal_checkpoint_mode" toml:"wal_checkpoint_mode"`
}

// ApplyDefaults sets default values for optional maintenance configuration fields.
func (m *MaintenanceConfig) ApplyDefaults() {
	if m.CheckInterval.Duration == 0 {
		m.CheckInterval = common.NewDuration(30 * time.Minute) //nolint:mnd
	}
	if m.WALCheckpointMode == "" {
		m.WALCheckpointMode = "TRUNCATE"
	}
}

// Validate checks if the maintenance configuration is valid.
func (m *MaintenanceConfig) Validate() error {
	if m.WALCheckpointMode != "" &&
		!slices.Contains([]string{"PASSIVE", "FULL", "RESTART", "TRUNCATE"}, m.WALCheckpointMode) {
		return fmt.Errorf("wal_checkpoint_mode: must be one of: PASSIVE, FULL, RESTART, TRUNCATE")
	}

	return nil
}

// APIConfig configures the HTTP and WebSocket server.
type APIConfig struct {
	// Enabled controls whether the API server is started
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the API server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout common.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout common.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`

	// CORS configures cross-origin resource sharing
	CORS *CORSConfig `yaml:"cors,omitempty" json:"cors,omitempty" toml:"cors,omitempty"`

	// Auth configures wallet login tokens
	Auth *AuthConfig `yaml:"auth,omitempty" json:"auth,omitempty" toml:"auth,omitempty"`

	// WebSocket configures live donation subscriptions
	WebSocket *WebSocketConfig `yaml:"websocket,omitempty" json:"websocket,omitempty" toml:"websocket,omitempty"`
}

// ApplyDefaults sets default values for optional API configuration fields.
func (a *APIConfig) ApplyDefaults() {
	if a.ListenAddress == "" {
		a.ListenAddress = ":8000"
	}
	if a.ReadTimeout.Duration == 0 {
		a.ReadTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.WriteTimeout.Duration == 0 {
		a.WriteTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.IdleTimeout.Duration == 0 {
		a.IdleTimeout = common.NewDuration(60 * time.Second) //nolint:mnd
	}
	if a.CORS == nil {
		a.CORS = &CORSConfig{}
	}
	a.CORS.ApplyDefaults()

	if a.Auth == nil {
		a.Auth = &AuthConfig{}
	}
	a.Auth.ApplyDefaults()

	if a.WebSocket == nil {
		a.WebSocket = &WebSocketConfig{}
	}
	a.WebSocket.ApplyDefaults()
}

// Validate checks the API configuration.
func (a *APIConfig) Validate() error {
	if !a.Enabled {
		return nil
	}

	if a.ListenAddress == "" {
		return fmt.Errorf("listen_address is required when the api is enabled")
	}

	if a.Auth != nil && a.Auth.RequireForWebSocket && a.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required when auth.require_for_websocket is set")
	}

	return nil
}

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	// AllowedOrigins lists allowed origins, "*" allows any
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`

	// AllowCredentials allows cookies and authorization headers
	AllowCredentials bool `yaml:"allow_credentials" json:"allow_credentials" toml:"allow_credentials"`
}

// ApplyDefaults sets default values for CORS configuration.
func (c *CORSConfig) ApplyDefaults() {
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

// AuthConfig configures wallet login tokens.
type AuthConfig struct {
	// Secret is the HMAC key used to sign tokens
	Secret string `yaml:"secret" json:"secret" toml:"secret"`

	// TokenExpiry is the lifetime of issued tokens
	TokenExpiry common.Duration `yaml:"token_expiry" json:"token_expiry" toml:"token_expiry"`

	// RequireForWebSocket rejects WebSocket subscriptions without a valid token
	RequireForWebSocket bool `yaml:"require_for_websocket" json:"require_for_websocket" toml:"require_for_websocket"`
}

// ApplyDefaults sets default values for auth configuration.
func (a *AuthConfig) ApplyDefaults() {
	if a.TokenExpiry.Duration == 0 {
		a.TokenExpiry = common.NewDuration(30 * time.Minute) //nolint:mnd
	}
}

// WebSocketConfig configures live donation subscriptions.
type WebSocketConfig struct {
	// SendBuffer is the number of messages queued per subscriber before it is dropped
	SendBuffer int `yaml:"send_buffer" json:"send_buffer" toml:"send_buffer"`

	// WriteTimeout bounds a single frame write
	WriteTimeout common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// PingInterval is the keep-alive ping period
	PingInterval common.Duration `yaml:"ping_interval" json:"ping_interval" toml:"ping_interval"`
}

// ApplyDefaults sets default values for WebSocket configuration.
func (w *WebSocketConfig) ApplyDefaults() {
	if w.SendBuffer == 0 {
		w.SendBuffer = 64
	}
	if w.WriteTimeout.Duration == 0 {
		w.WriteTimeout = common.NewDuration(10 * time.Second) //nolint:mnd
	}
	if w.PingInterval.Duration == 0 {
		w.PingInterval = common.NewDuration(30 * time.Second) //nolint:mnd
	}
}

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	// Available components:
	//   - poller: Polling loop
	//   - chain-client: Chain node access
	//   - decoder: Event decoding
	//   - store: Event store
	//   - reorg-detector: Reorganization detection
	//   - hub: Subscriber fan-out
	//   - api: HTTP and WebSocket server
	//   - metrics: Metrics server
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		if _, validComponent := common.AllComponents[common.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if level, ok := l.ComponentLevels[component]; ok {
		return common.ToLowerWithTrim(level)
	}
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// GetDefaultLevel returns the default log level.
func (l *LoggingConfig) GetDefaultLevel() string {
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l.Development
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	// Format: "host:port" or ":port"
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for optional metrics configuration fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.ListenAddress == "" {
			return fmt.Errorf("listen_address is required when metrics are enabled")
		}
		if m.Path == "" {
			return fmt.Errorf("path is required when metrics are enabled")
		}
		if m.Path[0] != '/' {
			return fmt.Errorf("path must start with '/'")
		}
	}
	return nil
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.Chain.ApplyDefaults()
	c.Indexer.ApplyDefaults()
	c.DB.ApplyDefaults()

	if c.API != nil {
		c.API.ApplyDefaults()
	}

	// loggers are built from this even when the file has no logging section
	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	c.Logging.ApplyDefaults()

	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Chain.Validate(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Chain.EventABISignature) == "" {
		return fmt.Errorf("chain.event_abi_signature is required")
	}

	if c.Indexer.MaxBlockSpanPerQuery == 0 {
		return fmt.Errorf("indexer.max_block_span_per_query must be greater than zero")
	}

	if c.Indexer.PollingIntervalSeconds == 0 {
		return fmt.Errorf("indexer.polling_interval_seconds must be greater than zero")
	}

	if c.Indexer.Backoff != nil {
		if err := c.Indexer.Backoff.Validate(); err != nil {
			return fmt.Errorf("indexer.backoff: %w", err)
		}
	}

	if c.Indexer.Reorg.IsEnabled() && c.Indexer.Reorg.HistorySize <= 0 {
		return fmt.Errorf("indexer.reorg.history_size must be greater than zero")
	}

	if c.Indexer.Anomaly.IsEnabled() && c.Indexer.Anomaly.HistorySize <= 0 {
		return fmt.Errorf("indexer.anomaly.history_size must be greater than zero")
	}

	if err := c.DB.Validate(); err != nil {
		return err
	}

	if c.API != nil {
		if err := c.API.Validate(); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}
