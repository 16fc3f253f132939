package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all intent-generator configuration.
type Config struct {
	SourcePath string `toml:"source_path"` // SQLite export of the event warehouse
	OutputDir  string `toml:"output_dir"`

	Scope      ScopeConfig      `toml:"scope"`
	Enrichment EnrichmentConfig `toml:"enrichment"`
	Archive    ArchiveConfig    `toml:"archive"`
}

// ScopeConfig holds default analysis scope, overridable by CLI flags.
type ScopeConfig struct {
	ProjectFilter string `toml:"project_filter"` // substring match on project id
	TokenID       string `toml:"token_id"`       // empty = all tokens in matching projects
	StartDate     string `toml:"start_date"`     // YYYY-MM-DD, optional
	EndDate       string `toml:"end_date"`       // YYYY-MM-DD, optional
}

type EnrichmentConfig struct {
	Enabled        bool   `toml:"enabled"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Retries        int    `toml:"retries"`
	Model          string `toml:"model"`
	APIKeyEnv      string `toml:"api_key_env"`
	BaseURL        string `toml:"base_url"`
}

type ArchiveConfig struct {
	Compress bool `toml:"compress"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SourcePath: "~/data/telemetry.db",
		OutputDir:  "output",
		Enrichment: EnrichmentConfig{
			Enabled:        true,
			TimeoutSeconds: 60,
			Retries:        2,
			Model:          "gemini-2.0-flash",
			APIKeyEnv:      "GEMINI_API_KEY",
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta/openai",
		},
		Archive: ArchiveConfig{
			Compress: false,
		},
	}
}

// Load reads config from the standard path, falling back to defaults.
func Load() (Config, error) {
	cfg := DefaultConfig()

	for _, p := range configPaths() {
		if _, err := os.Stat(p); err == nil {
			if _, err := toml.DecodeFile(p, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", p, err)
			}
			break
		}
	}

	cfg.SourcePath = expandHome(cfg.SourcePath)
	cfg.OutputDir = expandHome(cfg.OutputDir)

	return cfg, nil
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "intent-generator", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "intent-generator", "config.toml"))
	}

	return paths
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// SessionDir returns the per-session artifact directory for a session id.
func (c Config) SessionDir(sessionID string) string {
	return filepath.Join(c.OutputDir, sessionID)
}
