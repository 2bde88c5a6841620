// Package config manages cubeconnectord daemon configuration using
// koanf/v2.
//
// Supports YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete cubeconnectord configuration.
type Config struct {
	Radio    RadioConfig    `koanf:"radio"`
	Store    StoreConfig    `koanf:"store"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Protocol ProtocolConfig `koanf:"protocol"`
}

// RadioConfig holds the simulated radio transport configuration
// (internal/radiosim).
type RadioConfig struct {
	// ListenAddr is the UDP address the simulated radio listens on for
	// cube traffic (e.g., ":4246").
	ListenAddr string `koanf:"listen_addr"`

	// CubeAddr is the UDP address of the paired cube's radio endpoint.
	// In the real firmware this is a frequency-hopping nRF24L01 link;
	// here it is a fixed UDP peer standing in for one cube slot's air
	// interface.
	CubeAddr string `koanf:"cube_addr"`

	// NeighborAddr is the UDP address the neighbor-key beacon binds to.
	NeighborAddr string `koanf:"neighbor_addr"`

	// NeighborPeerAddr is the UDP address the neighbor-key beacon sends
	// its idPattern/mask frames to, standing in for the short-range
	// broadcast a real base station emits during first-contact pairing.
	NeighborPeerAddr string `koanf:"neighbor_peer_addr"`
}

// StoreConfig holds the persistent pairing-store configuration.
type StoreConfig struct {
	// Path is the SQLite database file path. ":memory:" uses an
	// in-process database, useful for local demos and tests.
	Path string `koanf:"path"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9101").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// ProtocolConfig holds the cube-connector settings a deployment may
// override. Retry counts, FIFO depth and the other protocol constants
// stay compiled in (internal/cubeconnector/constants.go) and are not
// configurable here.
type ProtocolConfig struct {
	// TaskFlushInterval is the period on which the daemon ticks
	// Connector.Task; it is the only thing that runs Task.
	TaskFlushInterval time.Duration `koanf:"task_flush_interval"`

	// DisableReconnect mirrors cubeconnector.Options.DisableReconnect,
	// for demos that only want to exercise fresh pairing.
	DisableReconnect bool `koanf:"disable_reconnect"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Radio: RadioConfig{
			ListenAddr:       ":4246",
			CubeAddr:         "127.0.0.1:4248",
			NeighborAddr:     ":4247",
			NeighborPeerAddr: "127.0.0.1:4249",
		},
		Store: StoreConfig{
			Path: "cubeconnectord.db",
		},
		Metrics: MetricsConfig{
			Addr: ":9101",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Protocol: ProtocolConfig{
			TaskFlushInterval: 5 * time.Second,
			DisableReconnect:  false,
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for cubeconnectord
// configuration. Variables are named CUBECONNECTORD_<section>_<key>,
// e.g., CUBECONNECTORD_RADIO_LISTEN_ADDR.
const envPrefix = "CUBECONNECTORD_"

// Load reads configuration from a YAML file at path, overlays
// environment variable overrides (CUBECONNECTORD_ prefix), and merges
// on top of DefaultConfig(). Missing fields inherit defaults. An empty
// path skips the file layer, so defaults and env overrides alone apply;
// a non-empty path that cannot be read is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper transforms CUBECONNECTORD_RADIO_LISTEN_ADDR ->
// radio.listen_addr. Strips the prefix, lowercases, and replaces the
// first _ with . (the remaining underscores are part of snake_case keys).
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	if i := strings.Index(s, "_"); i >= 0 {
		return s[:i] + "." + s[i+1:]
	}
	return s
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"radio.listen_addr":            defaults.Radio.ListenAddr,
		"radio.cube_addr":              defaults.Radio.CubeAddr,
		"radio.neighbor_addr":          defaults.Radio.NeighborAddr,
		"radio.neighbor_peer_addr":     defaults.Radio.NeighborPeerAddr,
		"store.path":                   defaults.Store.Path,
		"metrics.addr":                 defaults.Metrics.Addr,
		"metrics.path":                 defaults.Metrics.Path,
		"log.level":                    defaults.Log.Level,
		"log.format":                   defaults.Log.Format,
		"protocol.task_flush_interval": defaults.Protocol.TaskFlushInterval.String(),
		"protocol.disable_reconnect":   defaults.Protocol.DisableReconnect,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyRadioListenAddr indicates the radio listen address is empty.
	ErrEmptyRadioListenAddr = errors.New("radio.listen_addr must not be empty")

	// ErrEmptyStorePath indicates the store path is empty.
	ErrEmptyStorePath = errors.New("store.path must not be empty")

	// ErrInvalidTaskFlushInterval indicates the task flush interval is
	// not positive.
	ErrInvalidTaskFlushInterval = errors.New("protocol.task_flush_interval must be > 0")
)

// Validate checks a Config for internally-consistent values.
func Validate(cfg *Config) error {
	if cfg.Radio.ListenAddr == "" {
		return ErrEmptyRadioListenAddr
	}
	if cfg.Store.Path == "" {
		return ErrEmptyStorePath
	}
	if cfg.Protocol.TaskFlushInterval <= 0 {
		return ErrInvalidTaskFlushInterval
	}
	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the
// corresponding slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
