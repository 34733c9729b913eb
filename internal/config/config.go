// Package config loads fitlog settings from config.yaml, FITLOG_*
// environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

type Config struct {
	DataDir      string
	Store        StoreConfig
	Enrich       EnrichConfig
	RecentLimit  int
	TrackingFile string
	Timezone     string
	LogLevel     string
}

type StoreConfig struct {
	Backend string
	DB      string
	Blob    string
}

type EnrichConfig struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Options are explicit overrides, typically from command-line flags.
// Empty fields are ignored.
type Options struct {
	ConfigFile string
	DataDir    string
	LogLevel   string
	// Fs defaults to the OS filesystem
	Fs afero.Fs
}

// DefaultDataDir returns ~/.fitlog
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fitlog"
	}
	return filepath.Join(home, ".fitlog")
}

// Load resolves the configuration. A missing config.yaml in the data
// directory yields defaults; an explicitly named file must exist.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	if opts.Fs != nil {
		v.SetFs(opts.Fs)
	}
	v.SetEnvPrefix("FITLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("store.backend", "auto")
	v.SetDefault("store.db", "")
	v.SetDefault("store.blob", "")
	v.SetDefault("enrich.endpoint", "")
	v.SetDefault("enrich.model", "")
	v.SetDefault("enrich.api_key", "")
	v.SetDefault("enrich.timeout", "8s")
	v.SetDefault("pipeline.recent_limit", 5)
	v.SetDefault("tracking.file", "")
	v.SetDefault("timezone", "")
	v.SetDefault("log.level", "info")

	if opts.DataDir != "" {
		v.Set("data_dir", opts.DataDir)
	}

	v.SetConfigType("yaml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(v.GetString("data_dir"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if opts.DataDir != "" {
		v.Set("data_dir", opts.DataDir)
	}
	if opts.LogLevel != "" {
		v.Set("log.level", opts.LogLevel)
	}

	dataDir := v.GetString("data_dir")
	cfg := &Config{
		DataDir: dataDir,
		Store: StoreConfig{
			Backend: v.GetString("store.backend"),
			DB:      orDefault(v.GetString("store.db"), filepath.Join(dataDir, "notes.db")),
			Blob:    orDefault(v.GetString("store.blob"), filepath.Join(dataDir, "notes.json")),
		},
		Enrich: EnrichConfig{
			Endpoint: v.GetString("enrich.endpoint"),
			Model:    v.GetString("enrich.model"),
			APIKey:   orDefault(v.GetString("enrich.api_key"), os.Getenv("ANTHROPIC_API_KEY")),
			Timeout:  v.GetDuration("enrich.timeout"),
		},
		RecentLimit:  v.GetInt("pipeline.recent_limit"),
		TrackingFile: orDefault(v.GetString("tracking.file"), filepath.Join(dataDir, "tracking.yaml")),
		Timezone:     v.GetString("timezone"),
		LogLevel:     v.GetString("log.level"),
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location returns the time zone used for day keys
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	return loc, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
