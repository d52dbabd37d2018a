package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var ErrRemoteNotConfigured = errors.New("remote store not configured (set remote.url, remote.api_key and remote.owner_id)")

type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	Log     LogConfig     `mapstructure:"log"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Search  SearchConfig  `mapstructure:"search"`
	Sync    SyncConfig    `mapstructure:"sync"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Sources SourcesConfig `mapstructure:"sources"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type RemoteConfig struct {
	URL                 string        `mapstructure:"url"`
	APIKey              string        `mapstructure:"api_key"`
	AccessToken         string        `mapstructure:"access_token"`
	OwnerID             string        `mapstructure:"owner_id"`
	PageSize            int           `mapstructure:"page_size"`
	SimilarityThreshold float64       `mapstructure:"similarity_threshold"`
	Timeout             time.Duration `mapstructure:"timeout"`
	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
}

type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type SyncConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	FetchLimit   int           `mapstructure:"fetch_limit"`
	MaxCacheSize int           `mapstructure:"max_cache_size"`
	MaxEvict     int           `mapstructure:"max_evict"`
}

type LLMConfig struct {
	Provider      string            `mapstructure:"provider"`
	Model         string            `mapstructure:"model"`
	BaseURL       string            `mapstructure:"base_url"`
	APIKey        string            `mapstructure:"api_key"`
	Headers       map[string]string `mapstructure:"headers"`
	SummaryPrompt string            `mapstructure:"summary_prompt"`
}

type SourcesConfig struct {
	X        bool `mapstructure:"x"`
	Raindrop bool `mapstructure:"raindrop"`
	GitHub   bool `mapstructure:"github"`
}

// DefaultDataDir returns ~/.mindhub.
func DefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".mindhub"), nil
}

// Load reads defaults, config.yaml in the data directory and MINDHUB_*
// environment overrides. A non-empty dataDir takes precedence over all of them.
func Load(dataDir string) (*Config, error) {
	defaultDataDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("data_dir", defaultDataDir)
	v.SetDefault("log.level", "info")
	v.SetDefault("remote.page_size", 200)
	v.SetDefault("remote.similarity_threshold", 0.1)
	v.SetDefault("remote.timeout", "30s")
	v.SetDefault("remote.rate_limit", 10)
	v.SetDefault("search.debounce", "500ms")
	v.SetDefault("sync.interval", "5m")
	v.SetDefault("sync.fetch_limit", 1000)
	v.SetDefault("sync.max_cache_size", 50000)
	v.SetDefault("sync.max_evict", 1000)
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.model", "claude-haiku-4-5-20251001")
	v.SetDefault("sources.x", true)
	v.SetDefault("sources.raindrop", true)
	v.SetDefault("sources.github", true)

	// Environment variable overrides
	v.SetEnvPrefix("MINDHUB")
	v.AutomaticEnv()
	v.BindEnv("data_dir", "MINDHUB_DATA_DIR")
	v.BindEnv("log.level", "MINDHUB_LOG_LEVEL")
	v.BindEnv("remote.url", "MINDHUB_REMOTE_URL")
	v.BindEnv("remote.api_key", "MINDHUB_REMOTE_API_KEY")
	v.BindEnv("remote.access_token", "MINDHUB_REMOTE_ACCESS_TOKEN")
	v.BindEnv("remote.owner_id", "MINDHUB_REMOTE_OWNER_ID")
	v.BindEnv("llm.provider", "MINDHUB_LLM_PROVIDER")
	v.BindEnv("llm.model", "MINDHUB_LLM_MODEL")
	v.BindEnv("llm.base_url", "MINDHUB_LLM_BASE_URL")

	if dataDir != "" {
		v.Set("data_dir", dataDir)
	}

	// Config file lives in the data directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("data_dir"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings needed to talk to the remote store.
func (c *Config) Validate() error {
	if c.Remote.URL == "" || c.Remote.APIKey == "" || c.Remote.OwnerID == "" {
		return ErrRemoteNotConfigured
	}
	if c.Remote.PageSize <= 0 {
		return fmt.Errorf("remote.page_size must be positive, got %d", c.Remote.PageSize)
	}
	return nil
}

func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "mindhub.db")
}

func (c *Config) CacheDir() string {
	return filepath.Join(c.DataDir, "cache")
}
