// Package config loads the server configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Transport modes.
const (
	ModeStdio     = "stdio"
	ModeHTTP      = "http"
	ModeWebSocket = "websocket"
)

// WorkspaceConfig locates the Swift workspace.
type WorkspaceConfig struct {
	Root string `toml:"root"`
}

// TransportConfig selects and tunes the transport.
type TransportConfig struct {
	Mode           string   `toml:"mode"`
	Addr           string   `toml:"addr"`
	Token          string   `toml:"token"`
	AllowedOrigins []string `toml:"allowedOrigins"`
	ShutdownGrace  Duration `toml:"shutdownGrace"`
}

// MemoryConfig selects the project memory store.
type MemoryConfig struct {
	// DBPath is a SQLite file. Empty keeps memory in process.
	DBPath      string `toml:"dbPath"`
	JournalMode string `toml:"journalMode"`
}

// LoggingConfig defines logging knobs.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// LimitsConfig bounds what a single client may ask for.
type LimitsConfig struct {
	MaxRequestBytes int      `toml:"maxRequestBytes"`
	RateLimit       int      `toml:"rateLimit"`
	RateBurst       int      `toml:"rateBurst"`
	RequestTimeout  Duration `toml:"requestTimeout"`
}

// TelemetryConfig toggles OpenTelemetry instrumentation.
type TelemetryConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"serviceName"`
}

// Config aggregates the server configuration.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Transport TransportConfig `toml:"transport"`
	Memory    MemoryConfig    `toml:"memory"`
	Logging   LoggingConfig   `toml:"logging"`
	Limits    LimitsConfig    `toml:"limits"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{Root: "."},
		Transport: TransportConfig{
			Mode:          ModeStdio,
			Addr:          ":8080",
			ShutdownGrace: Duration{10 * time.Second},
		},
		Memory:  MemoryConfig{JournalMode: "WAL"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Limits: LimitsConfig{
			MaxRequestBytes: 1 << 20,
		},
		Telemetry: TelemetryConfig{ServiceName: "swift-mcp-server"},
	}
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML text into cfg and validates the result. Keys absent
// from the text keep their current values.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg.validate()
}

func (cfg *Config) validate() error {
	var errs []error

	if cfg.Workspace.Root == "" {
		cfg.Workspace.Root = "."
	}

	switch cfg.Transport.Mode {
	case ModeStdio:
	case ModeHTTP, ModeWebSocket:
		if cfg.Transport.Addr == "" {
			errs = append(errs, fmt.Errorf("transport.addr required for %s", cfg.Transport.Mode))
		}
	default:
		errs = append(errs, fmt.Errorf("transport.mode %q must be stdio, http or websocket", cfg.Transport.Mode))
	}
	if cfg.Transport.ShutdownGrace.Duration < 0 {
		errs = append(errs, errors.New("transport.shutdownGrace must not be negative"))
	}

	switch strings.ToUpper(cfg.Memory.JournalMode) {
	case "", "WAL", "DELETE", "TRUNCATE", "MEMORY":
	default:
		errs = append(errs, fmt.Errorf("memory.journalMode %q is not supported", cfg.Memory.JournalMode))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q must be debug, info, warn or error", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", cfg.Logging.Format))
	}

	if cfg.Limits.MaxRequestBytes < 0 {
		errs = append(errs, errors.New("limits.maxRequestBytes must not be negative"))
	}
	if cfg.Limits.RateLimit < 0 || cfg.Limits.RateBurst < 0 {
		errs = append(errs, errors.New("limits.rateLimit and limits.rateBurst must not be negative"))
	}
	if cfg.Limits.RateLimit > 0 && cfg.Limits.RateBurst == 0 {
		cfg.Limits.RateBurst = cfg.Limits.RateLimit
	}
	if cfg.Limits.RequestTimeout.Duration < 0 {
		errs = append(errs, errors.New("limits.requestTimeout must not be negative"))
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "swift-mcp-server"
	}

	return errors.Join(errs...)
}
