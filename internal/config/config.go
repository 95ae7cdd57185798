// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load layers a YAML file and env on top.
// - Validate reports the first inconsistent setting wrapped in ErrInvalidConfig.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Lookup backends.
const (
	LookupCSV = "csv"
	LookupSQL = "sql"
)

// SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Inference backends.
const (
	InferenceHTTP  = "http"
	InferenceLocal = "local"
)

// NaN policies.
const (
	NaNPropagate = "propagate"
	NaNFailFast  = "fail_fast"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LookupBackend picks where fighter records come from: csv or sql.
	LookupBackend string `koanf:"lookup_backend"`

	// CSVPath is the flat fighter dataset read by the csv backend.
	CSVPath string `koanf:"csv_path"`

	DBDriver       string `koanf:"db_driver"`
	DBDSN          string `koanf:"db_dsn"`
	DBMaxOpenConns int    `koanf:"db_max_open_conns"`
	DBAutoMigrate  bool   `koanf:"db_auto_migrate"`

	// InferenceBackend is http (remote model service) or local (go-deep dump).
	InferenceBackend   string `koanf:"inference_backend"`
	InferenceURL       string `koanf:"inference_url"`
	InferencePath      string `koanf:"inference_path"`
	InferenceModelPath string `koanf:"inference_model_path"`
	InferenceTimeoutMS int    `koanf:"inference_timeout_ms"`

	// InferenceRateLimit is requests per second towards the model; 0 disables limiting.
	InferenceRateLimit float64 `koanf:"inference_rate_limit"`
	InferenceBurst     int     `koanf:"inference_burst"`

	// NaNPolicy is propagate or fail_fast.
	NaNPolicy string `koanf:"nan_policy"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
	MaxBodyBytes       int64    `koanf:"max_body_bytes"`

	// NATSURL enables the NATS event sink when set.
	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`

	// EventQueueSize bounds the in-memory prediction event queue.
	EventQueueSize int `koanf:"event_queue_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":3000",
		LookupBackend:      LookupCSV,
		CSVPath:            "data/fighters.csv",
		DBDriver:           DriverSQLite,
		DBDSN:              "file:fighters.db",
		DBMaxOpenConns:     10,
		DBAutoMigrate:      true,
		InferenceBackend:   InferenceHTTP,
		InferenceURL:       "http://localhost:5000",
		InferencePath:      "/predict-array",
		InferenceTimeoutMS: 5000,
		InferenceBurst:     1,
		NaNPolicy:          NaNPropagate,
		CORSAllowedOrigins: []string{"*"},
		MaxBodyBytes:       64 << 10,
		NATSSubject:        "fights.predictions",
		EventQueueSize:     1024,
	}
}

// InferenceTimeout returns the per-call inference deadline.
func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.InferenceTimeoutMS) * time.Millisecond
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if err := oneOf("log_format", c.LogFormat, "text", "json"); err != nil {
		return err
	}
	if err := oneOf("lookup_backend", c.LookupBackend, LookupCSV, LookupSQL); err != nil {
		return err
	}
	switch c.LookupBackend {
	case LookupCSV:
		if c.CSVPath == "" {
			return fmt.Errorf("%w: csv_path must not be empty", ErrInvalidConfig)
		}
	case LookupSQL:
		if err := oneOf("db_driver", c.DBDriver, DriverSQLite, DriverMySQL, DriverPostgres); err != nil {
			return err
		}
		if c.DBDSN == "" {
			return fmt.Errorf("%w: db_dsn must not be empty", ErrInvalidConfig)
		}
	}
	if err := oneOf("inference_backend", c.InferenceBackend, InferenceHTTP, InferenceLocal); err != nil {
		return err
	}
	switch c.InferenceBackend {
	case InferenceHTTP:
		if c.InferenceURL == "" {
			return fmt.Errorf("%w: inference_url must not be empty", ErrInvalidConfig)
		}
	case InferenceLocal:
		if c.InferenceModelPath == "" {
			return fmt.Errorf("%w: inference_model_path must not be empty", ErrInvalidConfig)
		}
	}
	if c.InferenceTimeoutMS <= 0 {
		return fmt.Errorf("%w: inference_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.InferenceRateLimit < 0 {
		return fmt.Errorf("%w: inference_rate_limit must not be negative", ErrInvalidConfig)
	}
	if err := oneOf("nan_policy", c.NaNPolicy, NaNPropagate, NaNFailFast); err != nil {
		return err
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	if c.EventQueueSize < 0 {
		return fmt.Errorf("%w: event_queue_size must not be negative", ErrInvalidConfig)
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalidConfig, key, strings.Join(allowed, "|"), value)
}
