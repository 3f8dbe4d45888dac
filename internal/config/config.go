// Package config handles loading and validating the tonegate configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the tonegate daemon.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Voice     VoiceConfig     `mapstructure:"voice"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Transcode TranscodeConfig `mapstructure:"transcode"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	HealthPort     int           `mapstructure:"health_port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// EngineConfig selects and configures the inference engine backend.
type EngineConfig struct {
	// Backend is "exec", "wyoming", or "mock".
	Backend string `mapstructure:"backend"`

	// Slots bounds concurrent calls into the engine. Model inference
	// saturates the compute it runs on, so the default is 1.
	Slots int64 `mapstructure:"slots"`

	// SampleRate is the engine's fixed native output rate in Hz.
	SampleRate int `mapstructure:"sample_rate"`

	Exec    ExecConfig    `mapstructure:"exec"`
	Wyoming WyomingConfig `mapstructure:"wyoming"`
}

// ExecConfig holds sidecar-process engine settings.
type ExecConfig struct {
	// Command is the sidecar command line, parsed shell-style.
	Command string `mapstructure:"command"`
}

// WyomingConfig holds Wyoming TCP engine settings.
type WyomingConfig struct {
	// Endpoint is the sidecar's host:port.
	Endpoint string `mapstructure:"endpoint"`

	// Voices maps internal style IDs (M1..F5) to the sidecar's voice
	// model names. Unmapped styles are passed through by ID.
	Voices map[string]string `mapstructure:"voices"`
}

// VoiceConfig tunes voice-name resolution.
type VoiceConfig struct {
	// DefaultStyle is the style served on a total resolution miss.
	DefaultStyle string `mapstructure:"default_style"`

	// Aliases adds or overrides client-name-to-style mappings.
	Aliases map[string]string `mapstructure:"aliases"`
}

// CacheConfig selects and configures the response cache.
type CacheConfig struct {
	// Backend is "memory", "disk", or "off".
	Backend string `mapstructure:"backend"`

	// Memory backend: entry cap and TTL.
	MaxEntries int           `mapstructure:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl"`

	// Disk backend: artifact directory and eviction policy.
	Dir           string        `mapstructure:"dir"`
	MaxAge        time.Duration `mapstructure:"max_age"`
	MaxBytes      int64         `mapstructure:"max_bytes"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

// TranscodeConfig holds external transcoder settings.
type TranscodeConfig struct {
	FFmpegPath string `mapstructure:"ffmpeg_path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and
// defaults. If configFile is non-empty it is used directly; otherwise the
// standard search order applies: ./tonegate.yaml, ./configs/tonegate.yaml,
// /etc/tonegate/tonegate.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("server.request_timeout", "2m")
	v.SetDefault("engine.backend", "mock")
	v.SetDefault("engine.slots", 1)
	v.SetDefault("engine.sample_rate", 44100)
	v.SetDefault("engine.exec.command", "")
	v.SetDefault("engine.wyoming.endpoint", "localhost:10200")
	v.SetDefault("voice.default_style", "F1")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_entries", 256)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.dir", "cache")
	v.SetDefault("cache.max_age", "72h")
	v.SetDefault("cache.max_bytes", 1073741824) // 1 GiB
	v.SetDefault("cache.prune_interval", "1h")
	v.SetDefault("transcode.ffmpeg_path", "ffmpeg")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("tonegate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tonegate")
	}

	// Environment variables: TONEGATE_SERVER_PORT, TONEGATE_ENGINE_BACKEND, etc.
	v.SetEnvPrefix("TONEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional — env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Engine.Backend {
	case "exec":
		if c.Engine.Exec.Command == "" {
			return fmt.Errorf("engine.exec.command is required for the exec backend")
		}
	case "wyoming":
		if c.Engine.Wyoming.Endpoint == "" {
			return fmt.Errorf("engine.wyoming.endpoint is required for the wyoming backend")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown engine backend %q", c.Engine.Backend)
	}

	switch c.Cache.Backend {
	case "memory", "disk", "off":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if c.Engine.SampleRate <= 0 {
		return fmt.Errorf("engine.sample_rate must be positive")
	}
	return nil
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
