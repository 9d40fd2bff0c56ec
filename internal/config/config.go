package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jask/foodswipe/internal/settings"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Search   SearchConfig   `mapstructure:"search"`
	Elastic  ElasticConfig  `mapstructure:"elastic"`
	Location LocationConfig `mapstructure:"location"`
	Session  SessionConfig  `mapstructure:"session"`
	Server   ServerConfig   `mapstructure:"server"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig selects where the liked list is persisted: "sqlite" or "file".
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

// SearchConfig holds provider settings.
type SearchConfig struct {
	Provider  string        `mapstructure:"provider"`
	APIKeyEnv string        `mapstructure:"api_key_env"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Locale    string        `mapstructure:"locale"`
	PageSize  int           `mapstructure:"page_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ElasticConfig struct {
	URL   string `mapstructure:"url"`
	Index string `mapstructure:"index"`
}

// LocationConfig is the fixed reference point. Both fields must be set for
// the location to be considered available.
type LocationConfig struct {
	Latitude  *float64 `mapstructure:"latitude"`
	Longitude *float64 `mapstructure:"longitude"`
}

// SessionConfig holds the last used search preferences.
type SessionConfig struct {
	Radius        int     `mapstructure:"radius"`
	Category      string  `mapstructure:"category"`
	Sort          string  `mapstructure:"sort"`
	OpenOnly      bool    `mapstructure:"open_only"`
	MinimumRating float64 `mapstructure:"minimum_rating"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	Username      string `mapstructure:"username"`
	PasswordHash  string `mapstructure:"password_hash"`
	SigningKeyEnv string `mapstructure:"signing_key_env"`
}

const (
	envPrefix = "FOODSWIPE"
	envConfig = "FOODSWIPE_CONFIG"
)

func defaultDataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "foodswipe")
}

// Path returns the config file location.
func Path() string {
	if p := os.Getenv(envConfig); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "foodswipe", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix FOODSWIPE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	def := settings.Default()
	v.SetDefault("database.path", filepath.Join(defaultDataDir(), "foodswipe.db"))
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.dir", "")
	v.SetDefault("search.provider", "yelp")
	v.SetDefault("search.api_key_env", "YELP_API_KEY")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.base_url", "")
	v.SetDefault("search.locale", "zh_TW")
	v.SetDefault("search.page_size", 50)
	v.SetDefault("search.timeout", "20s")
	v.SetDefault("elastic.url", "http://127.0.0.1:9200")
	v.SetDefault("elastic.index", "venues")
	v.SetDefault("session.radius", def.RadiusMeters)
	v.SetDefault("session.category", string(def.Category))
	v.SetDefault("session.sort", string(def.SortMode))
	v.SetDefault("session.open_only", def.OpenOnly)
	v.SetDefault("session.minimum_rating", def.MinimumRating)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.username", "")
	v.SetDefault("server.password_hash", "")
	v.SetDefault("server.signing_key_env", "FOODSWIPE_SIGNING_KEY")

	v.SetConfigType("toml")

	cfgPath := os.Getenv(envConfig)
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "foodswipe"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// no defaults, so AutomaticEnv alone would not surface them to Unmarshal
	_ = v.BindEnv("location.latitude")
	_ = v.BindEnv("location.longitude")

	// read config file if present
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// The TUI uses it to remember session preferences between runs.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("storage.backend", cfg.Storage.Backend)
	v.Set("storage.dir", cfg.Storage.Dir)
	v.Set("search.provider", cfg.Search.Provider)
	v.Set("search.api_key_env", cfg.Search.APIKeyEnv)
	v.Set("search.base_url", cfg.Search.BaseURL)
	v.Set("search.locale", cfg.Search.Locale)
	v.Set("search.page_size", cfg.Search.PageSize)
	v.Set("search.timeout", cfg.Search.Timeout.String())
	v.Set("elastic.url", cfg.Elastic.URL)
	v.Set("elastic.index", cfg.Elastic.Index)
	if cfg.Location.Latitude != nil && cfg.Location.Longitude != nil {
		v.Set("location.latitude", *cfg.Location.Latitude)
		v.Set("location.longitude", *cfg.Location.Longitude)
	}
	v.Set("session.radius", cfg.Session.Radius)
	v.Set("session.category", cfg.Session.Category)
	v.Set("session.sort", cfg.Session.Sort)
	v.Set("session.open_only", cfg.Session.OpenOnly)
	v.Set("session.minimum_rating", cfg.Session.MinimumRating)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("server.username", cfg.Server.Username)
	v.Set("server.password_hash", cfg.Server.PasswordHash)
	v.Set("server.signing_key_env", cfg.Server.SigningKeyEnv)
	// search.api_key is never written back; use the key store or the env var.

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
