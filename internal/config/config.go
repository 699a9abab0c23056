// Package config loads and validates the service configuration from a
// TOML file, applying defaults for anything left unset.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the root of the TOML configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Parser  ParserConfig  `toml:"parser"`
	Grammar GrammarConfig `toml:"grammar"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	MaxConnections     int      `toml:"max_connections"`
	RequestTimeout     int      `toml:"request_timeout_seconds"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// ParserConfig tunes the parsing pipeline.
type ParserConfig struct {
	MaxSegmentTokens int `toml:"max_segment_tokens"`
	MaxExpansions    int `toml:"max_expansions"`
	RefinePasses     int `toml:"refine_passes"`
}

// GrammarConfig selects the grammar files. Empty globs use the embedded
// default grammar.
type GrammarConfig struct {
	PatternGlobs  []string `toml:"pattern_globs"`
	RuleGlobs     []string `toml:"rule_globs"`
	DefaultBudget int      `toml:"default_budget"`
	WatchFiles    bool     `toml:"watch_files"`
}

// StorageConfig controls transmission persistence.
type StorageConfig struct {
	Enabled      bool   `toml:"enabled"`
	DatabasePath string `toml:"database_path"`
	MaxHistory   int    `toml:"max_history"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8573,
			MaxConnections: 64,
			RequestTimeout: 30,
		},
		Parser: ParserConfig{
			MaxSegmentTokens: 7,
			MaxExpansions:    1,
			RefinePasses:     2,
		},
		Grammar: GrammarConfig{
			DefaultBudget: 5,
			WatchFiles:    true,
		},
		Storage: StorageConfig{
			Enabled:      true,
			DatabasePath: "transmissions.db",
			MaxHistory:   10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key: %s", undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail at some distance from
// the config file.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("server.max_connections must be positive")
	}
	if c.Parser.MaxSegmentTokens < 1 {
		return fmt.Errorf("parser.max_segment_tokens must be positive")
	}
	if c.Parser.RefinePasses < 0 {
		return fmt.Errorf("parser.refine_passes must not be negative")
	}
	if c.Storage.Enabled && c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path required when storage is enabled")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
