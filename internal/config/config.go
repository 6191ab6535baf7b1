// Package config loads service configuration from environment
// variables, optionally overlaid with a TOML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the service configuration. Zero values fall back to the
// defaults applied in Load.
type Config struct {
	WatchDirs []string `toml:"watch_dirs"`
	// WatchRules maps an input extension to the output format that
	// watched files of that extension are converted to.
	WatchRules        map[string]string `toml:"watch_rules"`
	DBPath            string            `toml:"db_path"`
	DepsDir           string            `toml:"deps_dir"`
	OutputDir         string            `toml:"output_dir"`
	MaxWorkers        int               `toml:"max_workers"`
	Quality           int               `toml:"quality"`
	HTTPPort          int               `toml:"http_port"`
	StabilityDelaySec int               `toml:"stability_delay_sec"`
	MD5ChunkSize      int64             `toml:"md5_chunk_size"`
}

// Load reads configuration from the environment.
func Load() *Config {
	cfg := &Config{}
	cfg.WatchDirs = splitAndTrim(os.Getenv("WATCH_DIRS"))
	cfg.WatchRules = parseRules(os.Getenv("WATCH_RULES"))
	cfg.DBPath = getEnv("DB_PATH", "/data/tasks.db")
	cfg.DepsDir = getEnv("DEPS_DIR", "deps")
	cfg.OutputDir = os.Getenv("OUTPUT_DIR")
	cfg.MaxWorkers = getEnvInt("MAX_WORKERS", 4)
	cfg.Quality = getEnvInt("QUALITY", 95)
	cfg.HTTPPort = getEnvInt("HTTP_PORT", 8000)
	cfg.StabilityDelaySec = getEnvInt("STABILITY_DELAY", 1)
	cfg.MD5ChunkSize = getEnvInt64("MD5_CHUNK_SIZE", 4*1024*1024)
	return cfg
}

// ApplyFile overlays settings from a TOML file. Keys absent from the
// file keep their current values.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// HTTPAddr returns the listen address for the API server.
func (c *Config) HTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }

// parseRules parses "heic=jpg,wav=mp3" into a rules map. Extensions
// are lower-cased with leading dots stripped.
func parseRules(s string) map[string]string {
	rules := make(map[string]string)
	for _, pair := range splitAndTrim(s) {
		ext, format, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		ext = strings.ToLower(strings.TrimLeft(strings.TrimSpace(ext), "."))
		format = strings.ToLower(strings.TrimLeft(strings.TrimSpace(format), "."))
		if ext != "" && format != "" {
			rules[ext] = format
		}
	}
	return rules
}

func splitAndTrim(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}
