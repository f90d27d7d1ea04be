// Package config loads the server's TOML configuration file and wires up
// logging, mirroring the region file manager's own conf.Log.Errorf(...)
// convention (see server/world/provider.Manager) by exposing a ready-to-use
// *logrus.Logger alongside the parsed settings.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/duskcore/server/server/world/region"
)

// WorldConfig controls the chunk storage engine.
type WorldConfig struct {
	RegionFormat     string `toml:"region_format"` // "anvil" or "linear"
	DecompressionCap int    `toml:"decompression_cap_bytes"`
	SoftCacheSize    int    `toml:"soft_cache_size"`
	FlushCron        string `toml:"flush_cron"` // empty disables periodic flush
}

// Format resolves the configured region format, defaulting to anvil.
func (w WorldConfig) Format() region.Format {
	if w.RegionFormat == "linear" {
		return region.Linear
	}
	return region.Anvil
}

// ProfilerConfig controls the tick profiler.
type ProfilerConfig struct {
	Enabled             bool   `toml:"enabled"`
	SlowThresholdMillis uint64 `toml:"slow_threshold_millis"`
}

// RateLimitConfig controls the abuse-protection rate limiter.
type RateLimitConfig struct {
	MaxRequests   uint32 `toml:"max_requests"`
	WindowSeconds int64  `toml:"window_seconds"`
	BlockSeconds  int64  `toml:"block_seconds"`
	CleanupCron   string `toml:"cleanup_cron"`
}

// LoggingConfig controls where and how server log output is written.
type LoggingConfig struct {
	Level      string `toml:"level"` // logrus level name, e.g. "info", "debug"
	FilePath   string `toml:"file_path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Config is the server's top-level configuration document.
type Config struct {
	World     WorldConfig     `toml:"world"`
	Profiler  ProfilerConfig  `toml:"profiler"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Logging   LoggingConfig   `toml:"logging"`

	// Log is built from Logging by Load/Default and is not itself
	// serialized.
	Log *logrus.Logger `toml:"-"`
}

// Default returns the configuration a bare `worldtool` run uses when no
// config file is present.
func Default() *Config {
	c := &Config{
		World: WorldConfig{
			RegionFormat:     "anvil",
			DecompressionCap: 32 * 1024 * 1024,
			SoftCacheSize:    64,
			FlushCron:        "*/30 * * * * *",
		},
		Profiler: ProfilerConfig{
			Enabled:             false,
			SlowThresholdMillis: 50,
		},
		RateLimit: RateLimitConfig{
			MaxRequests:   100,
			WindowSeconds: 60,
			BlockSeconds:  300,
			CleanupCron:   "0 */5 * * * *",
		},
		Logging: LoggingConfig{Level: "info"},
	}
	c.Log = c.buildLogger()
	return c
}

// Load reads and parses the TOML document at path, falling back to
// Default's values for any field the document omits.
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.Log = c.buildLogger()
	return c, nil
}

func (c *Config) buildLogger() *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(c.Logging.Level); err == nil {
		log.SetLevel(lvl)
	}

	var out io.Writer = os.Stderr
	if c.Logging.FilePath != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   c.Logging.FilePath,
			MaxSize:    nonZero(c.Logging.MaxSizeMB, 100),
			MaxBackups: c.Logging.MaxBackups,
			MaxAge:     c.Logging.MaxAgeDays,
			Compress:   c.Logging.Compress,
		})
	}
	log.SetOutput(out)
	return log
}

func nonZero(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
