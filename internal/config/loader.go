package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr     string `json:"addr" yaml:"addr" toml:"addr"`
	Device   string `json:"device" yaml:"device" toml:"device"`
	Baud     int    `json:"baud" yaml:"baud" toml:"baud"`
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	// Subscriber fan-out sizing.
	Slots     int `json:"slots" yaml:"slots" toml:"slots"`
	QueueSize int `json:"queue_size" yaml:"queue_size" toml:"queue_size"`

	// Console handling.
	MaxLineBytes int      `json:"max_line_bytes" yaml:"max_line_bytes" toml:"max_line_bytes"`
	HistoryLines int      `json:"history_lines" yaml:"history_lines" toml:"history_lines"`
	Greeting     []string `json:"greeting" yaml:"greeting" toml:"greeting"`

	// Raw console archive; disabled while ArchivePath is empty.
	ArchivePath    string `json:"archive_path" yaml:"archive_path" toml:"archive_path"`
	ArchiveSizeMB  int    `json:"archive_size_mb" yaml:"archive_size_mb" toml:"archive_size_mb"`
	ArchiveBackups int    `json:"archive_backups" yaml:"archive_backups" toml:"archive_backups"`
	ArchiveAgeDays int    `json:"archive_age_days" yaml:"archive_age_days" toml:"archive_age_days"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
