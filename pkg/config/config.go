// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Corpus, Analysis, Search, Redis, Kafka, Database, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Search   SearchConfig   `yaml:"search"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// RateLimit is the number of requests a client IP may make per
	// RateWindow. Zero disables rate limiting.
	RateLimit   int           `yaml:"rateLimit"`
	RateWindow  time.Duration `yaml:"rateWindow"`
	CORSOrigins []string      `yaml:"corsOrigins"`
}

// CorpusConfig describes where the document collection comes from and how
// documents are carved out of the source text.
type CorpusConfig struct {
	// Source is a local file path or an http(s) URL.
	Source       string        `yaml:"source"`
	StartLine    int           `yaml:"startLine"`
	EndLine      int           `yaml:"endLine"`
	Pattern      string        `yaml:"pattern"`
	Author       string        `yaml:"author"`
	Origin       string        `yaml:"origin"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
	FetchRetries int           `yaml:"fetchRetries"`
}

// AnalysisConfig selects the stemmer and the stopword strategy applied when
// the collection is loaded.
type AnalysisConfig struct {
	Stemmer   string          `yaml:"stemmer"`
	Stopwords StopwordsConfig `yaml:"stopwords"`
}

// StopwordsConfig controls which filter populates the filtered term views.
// Strategy is one of none, list, frequency or builtin.
type StopwordsConfig struct {
	Strategy     string  `yaml:"strategy"`
	ListPath     string  `yaml:"listPath"`
	CommonCutoff float64 `yaml:"commonCutoff"`
	RareCutoff   float64 `yaml:"rareCutoff"`
}

// SearchConfig controls query execution limits and timeouts.
type SearchConfig struct {
	DefaultMode  string        `yaml:"defaultMode"`
	DefaultLimit int           `yaml:"defaultLimit"`
	MaxResults   int           `yaml:"maxResults"`
	Timeout      time.Duration `yaml:"timeout"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings for analytics events.
type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers"`
	ConsumerGroup string   `yaml:"consumerGroup"`
	Topic         string   `yaml:"topic"`
}

// DatabaseConfig holds connection parameters for the analytics snapshot
// store. Driver is postgres or sqlite.
type DatabaseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Driver           string        `yaml:"driver"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	Database         string        `yaml:"database"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	SSLMode          string        `yaml:"sslMode"`
	Path             string        `yaml:"path"`
	MaxOpenConns     int           `yaml:"maxOpenConns"`
	MaxIdleConns     int           `yaml:"maxIdleConns"`
	ConnMaxLifetime  time.Duration `yaml:"connMaxLifetime"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// DSN returns the data source name for the configured driver: a lib/pq
// keyword string for postgres, or the file path for sqlite.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls span logging.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate float64 `yaml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot be served.
func (c *Config) Validate() error {
	switch c.Analysis.Stemmer {
	case "porter", "snowball":
	default:
		return fmt.Errorf("analysis.stemmer: unknown stemmer %q", c.Analysis.Stemmer)
	}
	sw := c.Analysis.Stopwords
	switch sw.Strategy {
	case "none", "builtin":
	case "list":
		if sw.ListPath == "" {
			return fmt.Errorf("analysis.stopwords.listPath is required for the list strategy")
		}
	case "frequency":
		if sw.CommonCutoff < 0 || sw.CommonCutoff > 1 || sw.RareCutoff < 0 || sw.RareCutoff > 1 {
			return fmt.Errorf("analysis.stopwords cutoffs must lie in [0,1], got common=%v rare=%v",
				sw.CommonCutoff, sw.RareCutoff)
		}
	default:
		return fmt.Errorf("analysis.stopwords.strategy: unknown strategy %q", sw.Strategy)
	}
	switch c.Search.DefaultMode {
	case "boolean", "vector":
	default:
		return fmt.Errorf("search.defaultMode: unknown mode %q", c.Search.DefaultMode)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxResults <= 0 {
		return fmt.Errorf("search limits must be positive")
	}
	if c.Server.RateLimit < 0 || (c.Server.RateLimit > 0 && c.Server.RateWindow <= 0) {
		return fmt.Errorf("server: rateLimit must be non-negative with a positive rateWindow")
	}
	if c.Database.Enabled && c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver)
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateWindow:      time.Minute,
		},
		Corpus: CorpusConfig{
			Pattern:      `(?s)([^\n]+)\n\n(.*?)(?:\n{3,}|\z)`,
			FetchTimeout: 30 * time.Second,
			FetchRetries: 3,
		},
		Analysis: AnalysisConfig{
			Stemmer: "porter",
			Stopwords: StopwordsConfig{
				Strategy:     "none",
				CommonCutoff: 0.9,
				RareCutoff:   0.0,
			},
		},
		Search: SearchConfig{
			DefaultMode:  "vector",
			DefaultLimit: 10,
			MaxResults:   100,
			Timeout:      2 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "docsearch-analytics",
			Topic:         "search-events",
		},
		Database: DatabaseConfig{
			Driver:           "sqlite",
			Host:             "localhost",
			Port:             5432,
			Database:         "docsearch",
			User:             "docsearch",
			Password:         "localdev",
			SSLMode:          "disable",
			Path:             "docsearch.db",
			MaxOpenConns:     10,
			MaxIdleConns:     2,
			ConnMaxLifetime:  5 * time.Minute,
			SnapshotInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			SampleRate: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads DS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DS_SERVER_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("DS_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = v
	}
	if v := os.Getenv("DS_CORPUS_PATTERN"); v != "" {
		cfg.Corpus.Pattern = v
	}
	if v := os.Getenv("DS_ANALYSIS_STEMMER"); v != "" {
		cfg.Analysis.Stemmer = v
	}
	if v := os.Getenv("DS_STOPWORDS_STRATEGY"); v != "" {
		cfg.Analysis.Stopwords.Strategy = v
	}
	if v := os.Getenv("DS_STOPWORDS_LIST"); v != "" {
		cfg.Analysis.Stopwords.ListPath = v
	}
	if v := os.Getenv("DS_STOPWORDS_COMMON"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.Stopwords.CommonCutoff = f
		}
	}
	if v := os.Getenv("DS_STOPWORDS_RARE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.Stopwords.RareCutoff = f
		}
	}
	if v := os.Getenv("DS_SEARCH_MODE"); v != "" {
		cfg.Search.DefaultMode = v
	}
	if v := os.Getenv("DS_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = parseBool(v, cfg.Redis.Enabled)
	}
	if v := os.Getenv("DS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("DS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DS_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = parseBool(v, cfg.Kafka.Enabled)
	}
	if v := os.Getenv("DS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("DS_DATABASE_ENABLED"); v != "" {
		cfg.Database.Enabled = parseBool(v, cfg.Database.Enabled)
	}
	if v := os.Getenv("DS_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DS_DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DS_DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DS_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("DS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
