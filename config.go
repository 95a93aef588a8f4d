package shift

import (
	"fmt"

	"go.uber.org/multierr"
)

// Store kinds
const (
	StoreMemory = "memory"
	StoreFS     = "fs"
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from YAML, JSON or environment variables. The zero-value of a
// nested section inherits the defaults.
type Config struct {
	Store       StoreConfig   `json:"store" yaml:"store"`
	Definitions string        `json:"definitions,omitempty" yaml:"definitions,omitempty"`
	Events      EventsConfig  `json:"events" yaml:"events"`
	Tracing     TracingConfig `json:"tracing" yaml:"tracing"`
	Log         LogConfig     `json:"log" yaml:"log"`
	MaxSteps    int           `json:"maxSteps" yaml:"maxSteps"`
}

// StoreConfig selects the process instance store
type StoreConfig struct {
	Kind string `json:"kind" yaml:"kind"`
	// URL is the afs location of the fs store
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
	// Path is the bolt database file
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Addr and Prefix configure the redis store
	Addr   string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// EventsConfig controls forwarding of lifecycle events to a queue
type EventsConfig struct {
	Forward     bool `json:"forward" yaml:"forward"`
	QueueBuffer int  `json:"queueBuffer" yaml:"queueBuffer"`
}

// TracingConfig controls the stdout OpenTelemetry exporter
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// LogConfig controls the default logger
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns a Config populated with the engine defaults. Callers
// may modify the returned struct before passing it to NewFromConfig.
func DefaultConfig() *Config {
	return &Config{
		Store:  StoreConfig{Kind: StoreMemory},
		Events: EventsConfig{QueueBuffer: 1024},
		Tracing: TracingConfig{
			ServiceName:    "shift",
			ServiceVersion: "0.1.0",
		},
		Log:      LogConfig{Level: "info", Format: "text"},
		MaxSteps: 1000,
	}
}

// Validate returns an aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var err error
	switch c.Store.Kind {
	case "", StoreMemory:
	case StoreFS:
		if c.Store.URL == "" {
			err = multierr.Append(err, fmt.Errorf("store.url is required for the %v store", StoreFS))
		}
	case StoreBolt:
		if c.Store.Path == "" {
			err = multierr.Append(err, fmt.Errorf("store.path is required for the %v store", StoreBolt))
		}
	case StoreRedis:
		if c.Store.Addr == "" {
			err = multierr.Append(err, fmt.Errorf("store.addr is required for the %v store", StoreRedis))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unsupported store.kind %q", c.Store.Kind))
	}
	if c.Events.Forward && c.Events.QueueBuffer <= 0 {
		err = multierr.Append(err, fmt.Errorf("events.queueBuffer must be > 0"))
	}
	if c.MaxSteps < 0 {
		err = multierr.Append(err, fmt.Errorf("maxSteps must be >= 0"))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("unsupported log.format %q", c.Log.Format))
	}
	return err
}
