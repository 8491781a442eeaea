// Package config loads gateway settings from defaults, an optional config
// file, a .env file, and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. MUSEME_LOG_LEVEL.
const EnvPrefix = "MUSEME"

// Config is the fully-resolved gateway configuration.
type Config struct {
	Port      string
	AssetRoot string

	LogLevel  string
	LogFormat string

	UpstreamTimeout      time.Duration
	UpstreamMaxBodyBytes int64
	LyricsBaseURL        string
	AudioDBBaseURL       string

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("asset_root", "public")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("upstream.timeout", "15s")
	v.SetDefault("upstream.max_body_bytes", 5<<20)
	v.SetDefault("lyrics.base_url", "https://api.lyrics.ovh")
	v.SetDefault("audiodb.base_url", "https://theaudiodb.com/api/v1/json/1")
	v.SetDefault("server.read_header_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// Bind wires environment lookups and, when cfgFile is non-empty, reads it.
func Bind(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The bare PORT variable is what most hosting platforms set.
	if err := v.BindEnv("port", EnvPrefix+"_PORT", "PORT"); err != nil {
		return fmt.Errorf("config: bind port: %w", err)
	}

	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", cfgFile, err)
	}
	return nil
}

// Load resolves and validates a Config from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:                 strings.TrimSpace(v.GetString("port")),
		AssetRoot:            v.GetString("asset_root"),
		LogLevel:             v.GetString("log.level"),
		LogFormat:            v.GetString("log.format"),
		UpstreamTimeout:      v.GetDuration("upstream.timeout"),
		UpstreamMaxBodyBytes: v.GetInt64("upstream.max_body_bytes"),
		LyricsBaseURL:        v.GetString("lyrics.base_url"),
		AudioDBBaseURL:       v.GetString("audiodb.base_url"),
		ReadHeaderTimeout:    v.GetDuration("server.read_header_timeout"),
		ShutdownTimeout:      v.GetDuration("server.shutdown_timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: port is required")
	}
	if c.AssetRoot == "" {
		return errors.New("config: asset_root is required")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("config: upstream.timeout must be positive, got %s", c.UpstreamTimeout)
	}
	if c.UpstreamMaxBodyBytes <= 0 {
		return fmt.Errorf("config: upstream.max_body_bytes must be positive, got %d", c.UpstreamMaxBodyBytes)
	}
	for key, raw := range map[string]string{
		"lyrics.base_url":  c.LyricsBaseURL,
		"audiodb.base_url": c.AudioDBBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: %s must be an absolute URL, got %q", key, raw)
		}
	}
	return nil
}
