// Package config loads index-rotator's YAML configuration and builds the
// manager registry from it.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/database"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/elasticsearch"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/logger"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/metrics"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/naming"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/retry"
)

// Default configuration values.
const (
	defaultServiceName       = "index-rotator"
	defaultServiceVersion    = "dev"
	defaultESURL             = "http://localhost:9200"
	defaultESMaxRetries      = 3
	defaultESTimeout         = 30 * time.Second
	defaultRetryMaxAttempts  = 5
	defaultRetryInitialDelay = 2 * time.Second
	defaultRetryMaxDelay     = 10 * time.Second
	defaultLogLevel          = "info"
	defaultLogFormat         = "json"
	defaultDBHost            = "localhost"
	defaultDBPort            = 5432
	defaultDBUser            = "postgres"
	defaultDBName            = "index_rotator"
	defaultDBSSLMode         = "disable"
)

// Config holds the application configuration.
type Config struct {
	Service       ServiceConfig            `yaml:"service"`
	Elasticsearch ElasticsearchConfig      `yaml:"elasticsearch"`
	Logging       LoggingConfig            `yaml:"logging"`
	Naming        NamingConfig             `yaml:"naming"`
	Managers      map[string]ManagerConfig `yaml:"managers"`
	History       HistoryConfig            `yaml:"history"`
	Metrics       MetricsConfig            `yaml:"metrics"`

	// baseDir resolves relative mapping_file paths.
	baseDir string
}

// ServiceConfig holds service configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `env:"APP_DEBUG" yaml:"debug"`
}

// ElasticsearchConfig holds Elasticsearch configuration.
type ElasticsearchConfig struct {
	URL        string        `env:"ELASTICSEARCH_URL"      yaml:"url"`
	Username   string        `env:"ELASTICSEARCH_USERNAME" yaml:"username"`
	Password   string        `env:"ELASTICSEARCH_PASSWORD" yaml:"password"` //nolint:gosec // client credentials
	APIKey     string        `env:"ELASTICSEARCH_API_KEY"  yaml:"api_key"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
	TLS        TLSConfig     `yaml:"tls"`
	Retry      RetryConfig   `yaml:"retry"`
}

// TLSConfig holds TLS settings for the Elasticsearch connection.
type TLSConfig struct {
	InsecureSkipVerify bool `env:"ELASTICSEARCH_TLS_INSECURE_SKIP_VERIFY" yaml:"insecure_skip_verify"`
}

// RetryConfig controls how long the connect ping is retried.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// NamingConfig shapes time-suffixed index names.
type NamingConfig struct {
	Separator   string `yaml:"separator"`
	TimeFormat  string `yaml:"time_format"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// ManagerConfig is one logical manager. Mapping and MappingFile are
// exclusive; with neither, indices are created without a body.
type ManagerConfig struct {
	IndexName   string         `yaml:"index_name"`
	Mapping     map[string]any `yaml:"mapping"`
	MappingFile string         `yaml:"mapping_file"`
}

// HistoryConfig holds the rotation history database configuration.
type HistoryConfig struct {
	Enabled  bool   `env:"INDEX_ROTATOR_HISTORY_ENABLED"   yaml:"enabled"`
	Host     string `env:"POSTGRES_INDEX_ROTATOR_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_INDEX_ROTATOR_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_INDEX_ROTATOR_USER"     yaml:"user"`
	Password string `env:"POSTGRES_INDEX_ROTATOR_PASSWORD" yaml:"password"` //nolint:gosec // DB connection config
	Database string `env:"POSTGRES_INDEX_ROTATOR_DB"       yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// MetricsConfig holds Pushgateway settings.
type MetricsConfig struct {
	PushgatewayURL string `env:"METRICS_PUSHGATEWAY_URL" yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// Load loads configuration from a YAML file, applies defaults and validates it.
func Load(path string) (*Config, error) {
	cfg, err := loadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(path)

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, validateErr)
	}
	return cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setElasticsearchDefaults(&cfg.Elasticsearch)
	setLoggingDefaults(&cfg.Logging)
	setNamingDefaults(&cfg.Naming)
	setHistoryDefaults(&cfg.History)
	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = metrics.DefaultJob
	}
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
}

func setElasticsearchDefaults(e *ElasticsearchConfig) {
	if e.URL == "" {
		e.URL = defaultESURL
	}
	if e.MaxRetries == 0 {
		e.MaxRetries = defaultESMaxRetries
	}
	if e.Timeout == 0 {
		e.Timeout = defaultESTimeout
	}
	if e.Retry.MaxAttempts == 0 {
		e.Retry.MaxAttempts = defaultRetryMaxAttempts
	}
	if e.Retry.InitialDelay == 0 {
		e.Retry.InitialDelay = defaultRetryInitialDelay
	}
	if e.Retry.MaxDelay == 0 {
		e.Retry.MaxDelay = defaultRetryMaxDelay
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

func setNamingDefaults(n *NamingConfig) {
	if n.Separator == "" {
		n.Separator = naming.DefaultSeparator
	}
	if n.TimeFormat == "" {
		n.TimeFormat = naming.DefaultTimeFormat
	}
	if n.MaxAttempts == 0 {
		n.MaxAttempts = naming.DefaultMaxAttempts
	}
}

func setHistoryDefaults(h *HistoryConfig) {
	if h.Host == "" {
		h.Host = defaultDBHost
	}
	if h.Port == 0 {
		h.Port = defaultDBPort
	}
	if h.User == "" {
		h.User = defaultDBUser
	}
	if h.Database == "" {
		h.Database = defaultDBName
	}
	if h.SSLMode == "" {
		h.SSLMode = defaultDBSSLMode
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := ValidateRequired("elasticsearch.url", c.Elasticsearch.URL); err != nil {
		return err
	}
	if err := ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := ValidateLogFormat(c.Logging.Format); err != nil {
		return err
	}
	if c.Naming.MaxAttempts < 0 {
		return &ValidationError{Field: "naming.max_attempts", Message: "must not be negative"}
	}
	if len(c.Managers) == 0 {
		return &ValidationError{Field: "managers", Message: "at least one manager is required"}
	}

	for _, name := range c.ManagerNames() {
		m := c.Managers[name]
		field := "managers." + name
		if err := ValidateIndexName(field+".index_name", m.IndexName); err != nil {
			return err
		}
		if len(m.Mapping) > 0 && m.MappingFile != "" {
			return &ValidationError{Field: field, Message: "mapping and mapping_file are mutually exclusive"}
		}
	}

	if c.History.Enabled {
		if err := ValidateRequired("history.host", c.History.Host); err != nil {
			return err
		}
		if err := ValidateRequired("history.database", c.History.Database); err != nil {
			return err
		}
	}
	return nil
}

// ManagerNames returns the configured manager names, sorted.
func (c *Config) ManagerNames() []string {
	names := make([]string, 0, len(c.Managers))
	for name := range c.Managers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoggerConfig returns the logger configuration. debug forces the debug level.
func (c *Config) LoggerConfig(debug bool) logger.Config {
	cfg := logger.Config{
		Level:       c.Logging.Level,
		Format:      c.Logging.Format,
		Development: c.Service.Debug,
	}
	if debug || c.Service.Debug {
		cfg.Level = "debug"
	}
	return cfg
}

// ElasticsearchClientConfig returns the Elasticsearch client configuration.
func (c *Config) ElasticsearchClientConfig() elasticsearch.Config {
	return elasticsearch.Config{
		URL:                c.Elasticsearch.URL,
		Username:           c.Elasticsearch.Username,
		Password:           c.Elasticsearch.Password,
		APIKey:             c.Elasticsearch.APIKey,
		MaxRetries:         c.Elasticsearch.MaxRetries,
		Timeout:            c.Elasticsearch.Timeout,
		InsecureSkipVerify: c.Elasticsearch.TLS.InsecureSkipVerify,
		Retry: retry.Config{
			MaxAttempts:  c.Elasticsearch.Retry.MaxAttempts,
			InitialDelay: c.Elasticsearch.Retry.InitialDelay,
			MaxDelay:     c.Elasticsearch.Retry.MaxDelay,
		},
	}
}

// DatabaseConfig returns the history database configuration.
func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Host:     c.History.Host,
		Port:     c.History.Port,
		User:     c.History.User,
		Password: c.History.Password,
		Database: c.History.Database,
		SSLMode:  c.History.SSLMode,
	}
}

// ResolverOptions returns the naming options for the configured policy.
func (c *Config) ResolverOptions() []naming.Option {
	return []naming.Option{
		naming.WithSeparator(c.Naming.Separator),
		naming.WithTimeFormat(c.Naming.TimeFormat),
		naming.WithMaxAttempts(c.Naming.MaxAttempts),
	}
}
