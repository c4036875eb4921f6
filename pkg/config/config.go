package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	envConfigPath = "MUDCLIENT_CONFIG"
	envServerURL  = "MUDCLIENT_URL"
	envOrigin     = "MUDCLIENT_ORIGIN"
)

const (
	DefaultServerURL         = "ws://localhost:8001/websocket"
	DefaultHandshakeTimeout  = 10
	DefaultKeepaliveInterval = 180
	DefaultReadLimitBytes    = 1 << 20
	DefaultHistoryMaxLength  = 21
	DefaultScrollbackLines   = 40
	DefaultStatusHost        = "127.0.0.1"
	DefaultStatusPort        = 18801
)

// Config is the root runtime configuration loaded from config.json or config.toml.
type Config struct {
	Server  ServerConfig  `json:"server" toml:"server"`
	Client  ClientConfig  `json:"client" toml:"client"`
	Status  StatusConfig  `json:"status" toml:"status"`
	Logging LoggingConfig `json:"logging,omitempty" toml:"logging"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty" toml:"format"`
	Level     string `json:"level,omitempty" toml:"level"`
	AddSource bool   `json:"add_source,omitempty" toml:"add_source"`
	File      string `json:"file,omitempty" toml:"file"`
}

// ServerConfig describes the game portal websocket endpoint.
type ServerConfig struct {
	URL                      string `json:"url" toml:"url"`
	Origin                   string `json:"origin,omitempty" toml:"origin"`
	HandshakeTimeoutSeconds  int    `json:"handshake_timeout_seconds" toml:"handshake_timeout_seconds"`
	KeepaliveIntervalSeconds int    `json:"keepalive_interval_seconds" toml:"keepalive_interval_seconds"`
	ReadLimitBytes           int64  `json:"read_limit_bytes" toml:"read_limit_bytes"`
}

// ClientConfig holds per-session client behavior.
type ClientConfig struct {
	HistoryMaxLength int  `json:"history_max_length" toml:"history_max_length"`
	ScrollbackLines  int  `json:"scrollback_lines" toml:"scrollback_lines"`
	OOBDebug         bool `json:"oob_debug" toml:"oob_debug"`
}

// StatusConfig configures the headless status server bind address.
type StatusConfig struct {
	Host string `json:"host" toml:"host"`
	Port int    `json:"port" toml:"port"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:                      DefaultServerURL,
			HandshakeTimeoutSeconds:  DefaultHandshakeTimeout,
			KeepaliveIntervalSeconds: DefaultKeepaliveInterval,
			ReadLimitBytes:           DefaultReadLimitBytes,
		},
		Client: ClientConfig{
			HistoryMaxLength: DefaultHistoryMaxLength,
			ScrollbackLines:  DefaultScrollbackLines,
			OOBDebug:         true,
		},
		Status: StatusConfig{
			Host: DefaultStatusHost,
			Port: DefaultStatusPort,
		},
	}
}

// HandshakeTimeout returns the dial handshake timeout as a duration.
func (c ServerConfig) HandshakeTimeout() time.Duration {
	if c.HandshakeTimeoutSeconds <= 0 {
		return DefaultHandshakeTimeout * time.Second
	}

	return time.Duration(c.HandshakeTimeoutSeconds) * time.Second
}

// KeepaliveInterval returns the idle-token interval; zero disables keepalive.
func (c ServerConfig) KeepaliveInterval() time.Duration {
	if c.KeepaliveIntervalSeconds <= 0 {
		return 0
	}

	return time.Duration(c.KeepaliveIntervalSeconds) * time.Second
}

// LoadConfig resolves the config file, decodes it over defaults, and applies environment overrides.
//
// A missing config file is not an error; the defaults are returned instead.
func LoadConfig() (*Config, error) {
	cfg := Default()

	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := decodeFile(configPath, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	normalize(cfg)

	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(content), cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	}

	return nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if url := strings.TrimSpace(os.Getenv(envServerURL)); url != "" {
		cfg.Server.URL = url
	}

	if origin := strings.TrimSpace(os.Getenv(envOrigin)); origin != "" {
		cfg.Server.Origin = origin
	}
}

// normalize repairs out-of-range values so later components can trust them.
func normalize(cfg *Config) {
	cfg.Server.URL = strings.TrimSpace(cfg.Server.URL)
	if cfg.Server.URL == "" {
		cfg.Server.URL = DefaultServerURL
	}
	if cfg.Server.ReadLimitBytes <= 0 {
		cfg.Server.ReadLimitBytes = DefaultReadLimitBytes
	}
	// One real entry plus the trailing empty slot is the smallest usable ring.
	if cfg.Client.HistoryMaxLength < 2 {
		cfg.Client.HistoryMaxLength = DefaultHistoryMaxLength
	}
	if cfg.Client.ScrollbackLines <= 0 {
		cfg.Client.ScrollbackLines = DefaultScrollbackLines
	}
	if strings.TrimSpace(cfg.Status.Host) == "" {
		cfg.Status.Host = DefaultStatusHost
	}
	if cfg.Status.Port <= 0 {
		cfg.Status.Port = DefaultStatusPort
	}
}

// findConfigPath resolves the active config file location.
//
// Precedence is MUDCLIENT_CONFIG first, then cwd-local fallback paths. An empty
// path with a nil error means no config file exists.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config.toml"),
		filepath.Join(cwd, "config", "config.json"),
		filepath.Join(cwd, "config", "config.toml"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", nil
}
