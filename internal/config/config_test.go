package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8573, cfg.Server.Port)
	require.Equal(t, 7, cfg.Parser.MaxSegmentTokens)
	require.Equal(t, 2, cfg.Parser.RefinePasses)
	require.True(t, cfg.Storage.Enabled)
	require.Equal(t, "0.0.0.0:8573", cfg.Server.Addr())
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9000

[parser]
refine_passes = 3

[grammar]
pattern_globs = ["grammar/*.patterns"]

[logging]
level = "debug"
format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, 3, cfg.Parser.RefinePasses)
	require.Equal(t, []string{"grammar/*.patterns"}, cfg.Grammar.PatternGlobs)
	require.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	require.Equal(t, 7, cfg.Parser.MaxSegmentTokens)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[server]
prot = 9000
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown config key")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"missing db path", func(c *Config) { c.Storage.DatabasePath = "" }},
		{"bad segment window", func(c *Config) { c.Parser.MaxSegmentTokens = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does-not-exist.toml")
	require.Error(t, err)
}
