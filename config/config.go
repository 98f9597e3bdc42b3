// Package config loads and validates the tahlil service configuration.
// Values come from defaults, an optional config.yaml and TAHLIL_* environment
// variables, in increasing order of precedence. The PORT environment variable
// is honored separately because container platforms inject it directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// StartupMode defines how tahlil handles initialization failures.
type StartupMode string

const (
	// StartupModeStrict fails fast on any initialization error (default).
	StartupModeStrict StartupMode = "strict"
	// StartupModeGraceful starts without optional subsystems (cache,
	// history storage), logging warnings. A loadable model is still
	// required in every mode.
	StartupModeGraceful StartupMode = "graceful"
)

// DataPaths holds the data directory layout. Paths default relative to
// data_dir when not set explicitly.
type DataPaths struct {
	// DataDir is the base data directory (TAHLIL_DATA_DIR, default: ./data)
	DataDir string `mapstructure:"data_dir"`
	// ModelsDir is where model packages are downloaded and extracted
	ModelsDir string `mapstructure:"models_dir"`
	// SQLitePath is the analysis-history database file
	SQLitePath string `mapstructure:"sqlite_path"`
}

// Config holds all configuration for the tahlil service.
type Config struct {
	StartupMode StartupMode `mapstructure:"startup_mode"`

	DataPaths DataPaths `mapstructure:"data_paths"`

	Server struct {
		Host           string        `mapstructure:"host"`
		Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
		TLS            bool          `mapstructure:"tls"`
		CertFile       string        `mapstructure:"cert_file"`
		KeyFile        string        `mapstructure:"key_file"`
		ReadTimeout    time.Duration `mapstructure:"read_timeout"`
		WriteTimeout   time.Duration `mapstructure:"write_timeout"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
		AllowedOrigins []string      `mapstructure:"allowed_origins"`
		RateLimit      struct {
			RequestsPerSecond int `mapstructure:"requests_per_second" validate:"min=1"`
			Burst             int `mapstructure:"burst" validate:"min=1"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"server"`

	Model struct {
		// Name and Version identify the pretrained model package.
		Name    string `mapstructure:"name" validate:"required"`
		Version string `mapstructure:"version" validate:"required"`
		// HubURL is the base URL the package archive is fetched from.
		HubURL string `mapstructure:"hub_url" validate:"required,url"`
		// AutoDownload fetches the package at startup when it is missing.
		AutoDownload bool `mapstructure:"auto_download"`
		// DownloadTimeout bounds the archive fetch.
		DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	} `mapstructure:"model"`

	Analysis struct {
		// MaxTextLength rejects oversized inputs before the pipeline runs.
		MaxTextLength int `mapstructure:"max_text_length" validate:"min=1"`
		// Workers bounds concurrent pipeline runs.
		Workers int `mapstructure:"workers" validate:"min=1"`
	} `mapstructure:"analysis"`

	Wordcloud struct {
		Width    int `mapstructure:"width" validate:"min=100"`
		Height   int `mapstructure:"height" validate:"min=100"`
		MaxWords int `mapstructure:"max_words" validate:"min=1"`
		// FontFile is a TTF with Latin Extended coverage for Turkish glyphs.
		FontFile string `mapstructure:"font_file"`
	} `mapstructure:"wordcloud"`

	Cache struct {
		Enabled bool          `mapstructure:"enabled"`
		TTL     time.Duration `mapstructure:"ttl"`
		// LRUSize is the in-process cache size in entries.
		LRUSize int `mapstructure:"lru_size" validate:"min=1"`
		Redis   struct {
			Enabled  bool   `mapstructure:"enabled"`
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
			PoolSize int    `mapstructure:"pool_size"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`

	History struct {
		Enabled bool `mapstructure:"enabled"`
		// RetentionDays prunes analysis records older than this. 0 keeps
		// records forever.
		RetentionDays int `mapstructure:"retention_days" validate:"min=0"`
		// PruneInterval is how often the retention job runs.
		PruneInterval time.Duration `mapstructure:"prune_interval"`
	} `mapstructure:"history"`
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("startup_mode", string(StartupModeStrict))

	viper.SetDefault("data_paths.data_dir", "./data")
	viper.SetDefault("data_paths.models_dir", "") // Empty = derive from data_dir
	viper.SetDefault("data_paths.sqlite_path", "")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.tls", false)
	viper.SetDefault("server.cert_file", "server.crt")
	viper.SetDefault("server.key_file", "server.key")
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 120*time.Second)
	viper.SetDefault("server.request_timeout", 120*time.Second)
	viper.SetDefault("server.allowed_origins", []string{"*"})
	viper.SetDefault("server.rate_limit.requests_per_second", 50)
	viper.SetDefault("server.rate_limit.burst", 100)

	viper.SetDefault("model.name", "tr_core_news_md")
	viper.SetDefault("model.version", "1.0.0")
	viper.SetDefault("model.hub_url", "https://models.tahlil.dev/packages")
	viper.SetDefault("model.auto_download", true)
	viper.SetDefault("model.download_timeout", 5*time.Minute)

	viper.SetDefault("analysis.max_text_length", 100000)
	viper.SetDefault("analysis.workers", 2)

	viper.SetDefault("wordcloud.width", 2000)
	viper.SetDefault("wordcloud.height", 1000)
	viper.SetDefault("wordcloud.max_words", 200)
	viper.SetDefault("wordcloud.font_file", "data/fonts/DejaVuSans.ttf")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", 15*time.Minute)
	viper.SetDefault("cache.lru_size", 512)
	viper.SetDefault("cache.redis.enabled", false)
	viper.SetDefault("cache.redis.addr", "localhost:6379")
	viper.SetDefault("cache.redis.password", "")
	viper.SetDefault("cache.redis.db", 0)
	viper.SetDefault("cache.redis.pool_size", 10)

	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.retention_days", 30)
	viper.SetDefault("history.prune_interval", 1*time.Hour)
}

// LoadConfig reads configuration from file, environment and defaults.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix("TAHLIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, will use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// PORT is the deployment platform's injected listen port and wins over
	// everything else.
	if portEnv := os.Getenv("PORT"); portEnv != "" {
		port, err := strconv.Atoi(portEnv)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT environment variable %q: %w", portEnv, err)
		}
		cfg.Server.Port = port
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	cfg.ResolveDataPaths()

	return &cfg, nil
}

// Validate checks structural constraints on the configuration.
func Validate(cfg *Config) error {
	if cfg.StartupMode != "" && cfg.StartupMode != StartupModeStrict && cfg.StartupMode != StartupModeGraceful {
		return fmt.Errorf("invalid startup_mode %q: must be %q or %q",
			cfg.StartupMode, StartupModeStrict, StartupModeGraceful)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Server.TLS {
		if cfg.Server.CertFile == "" || cfg.Server.KeyFile == "" {
			return fmt.Errorf("server.tls enabled but cert_file or key_file missing")
		}
	}

	return nil
}

// ResolveDataPaths derives unset paths from DataDir.
func (c *Config) ResolveDataPaths() {
	dataDir := c.DataPaths.DataDir
	if dataDir == "" {
		dataDir = "./data"
	}

	if c.DataPaths.ModelsDir == "" {
		c.DataPaths.ModelsDir = filepath.Join(dataDir, "models")
	} else if !filepath.IsAbs(c.DataPaths.ModelsDir) {
		c.DataPaths.ModelsDir = filepath.Clean(c.DataPaths.ModelsDir)
	}

	if c.DataPaths.SQLitePath == "" {
		c.DataPaths.SQLitePath = filepath.Join(dataDir, "tahlil.db")
	} else if !filepath.IsAbs(c.DataPaths.SQLitePath) {
		c.DataPaths.SQLitePath = filepath.Clean(c.DataPaths.SQLitePath)
	}

	c.DataPaths.DataDir = dataDir
}

// GetDataDir returns the resolved base data directory.
func (c *Config) GetDataDir() string { return c.DataPaths.DataDir }

// GetModelsDir returns the resolved model package directory.
func (c *Config) GetModelsDir() string { return c.DataPaths.ModelsDir }

// GetSQLitePath returns the resolved history database path.
func (c *Config) GetSQLitePath() string { return c.DataPaths.SQLitePath }
