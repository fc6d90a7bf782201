package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"trends-go/pkg/api"
	"trends-go/pkg/pipeline"
)

const EnvPrefix = "TRENDS"

type manager struct {
	mu     sync.RWMutex
	config *Config
	viper  *viper.Viper
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

// Load reads defaults, an optional YAML file and TRENDS_* environment variables.
// An empty path looks for ./config.yaml and tolerates its absence.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setupViper(configPath)

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return m.decode()
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	if m.viper.ConfigFileUsed() != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to reload config: %w", err)
		}
	}

	_, err := m.decode()
	return err
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Set overrides a key, typically from a command-line flag. Call Reload to apply.
func (m *manager) Set(key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viper.Set(key, value)
}

func (m *manager) decode() (*Config, error) {
	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m.config = &config
	return &config, nil
}

func (m *manager) setupViper(configPath string) {
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
	} else {
		m.viper.SetConfigName("config")
		m.viper.SetConfigType("yaml")
		m.viper.AddConfigPath(".")
	}

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	setDefaults(m.viper)
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", api.DefaultBaseURL)
	v.SetDefault("api.login", "")
	v.SetDefault("api.password", "")
	v.SetDefault("api.location", "United States")
	v.SetDefault("api.language", "en")
	v.SetDefault("api.time_range", "past_7_days")
	v.SetDefault("api.geo", "US")

	v.SetDefault("limiter.limit", 240)
	v.SetDefault("limiter.window", time.Minute)

	v.SetDefault("submit.workers", 10)
	v.SetDefault("submit.batch_size", 1)
	v.SetDefault("submit.max_attempts", 3)
	v.SetDefault("submit.base_delay", time.Second)
	v.SetDefault("submit.factor", 2.0)
	v.SetDefault("submit.max_delay", 30*time.Second)

	v.SetDefault("poll.interval", 15*time.Second)
	v.SetDefault("poll.max_wait", 30*time.Minute)

	v.SetDefault("fetch.workers", 8)
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_entries", 10)

	v.SetDefault("keywords.file", "gpts.csv")
	v.SetDefault("keywords.limit", 0)

	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.website_file", "trending_data.json")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.static_dir", "web")
	v.SetDefault("server.open_browser", false)
	v.SetDefault("server.stale_after", 24*time.Hour)
	v.SetDefault("server.refresh_cron", "")
	v.SetDefault("server.refresh_stale", false)

	v.SetDefault("backend.url", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.batch_size", 50)
	v.SetDefault("backend.concurrency", 3)
	v.SetDefault("backend.enable_gzip", true)
	v.SetDefault("backend.timeout", time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.time_format", "")
}

func validateConfig(config *Config) error {
	if config.API.BaseURL == "" {
		return fmt.Errorf("api.base_url cannot be empty")
	}
	if _, _, ok := api.ParseDateRange(config.API.TimeRange); !ok && strings.Contains(config.API.TimeRange, " ") {
		return fmt.Errorf("invalid time range: %q", config.API.TimeRange)
	}

	if config.Limiter.Limit <= 0 || config.Limiter.Window <= 0 {
		return fmt.Errorf("limiter limit and window must be positive")
	}

	if config.Submit.Workers <= 0 {
		return fmt.Errorf("submit.workers must be positive")
	}
	if config.Submit.BatchSize <= 0 || config.Submit.BatchSize > pipeline.MaxTasksPerPost {
		return fmt.Errorf("submit.batch_size must be between 1 and %d", pipeline.MaxTasksPerPost)
	}
	if config.Submit.MaxAttempts <= 0 {
		return fmt.Errorf("submit.max_attempts must be positive")
	}
	if config.Submit.Factor < 1 {
		return fmt.Errorf("submit.factor must be at least 1")
	}

	if config.Poll.Interval <= 0 || config.Poll.MaxWait <= 0 {
		return fmt.Errorf("poll interval and max_wait must be positive")
	}

	if config.Fetch.Workers <= 0 {
		return fmt.Errorf("fetch.workers must be positive")
	}
	if config.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if config.Fetch.MaxEntries <= 0 {
		return fmt.Errorf("fetch.max_entries must be positive")
	}

	if config.Keywords.Limit < 0 {
		return fmt.Errorf("keywords.limit cannot be negative")
	}

	if config.Storage.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if config.Storage.WebsiteFile == "" {
		return fmt.Errorf("website_file cannot be empty")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.RefreshCron != "" {
		if _, err := cron.ParseStandard(config.Server.RefreshCron); err != nil {
			return fmt.Errorf("invalid refresh_cron: %w", err)
		}
	}

	if config.Backend.Enabled() && config.Backend.APIKey == "" {
		return fmt.Errorf("backend.api_key is required when backend.url is set")
	}

	return nil
}

// HasCredentials reports whether remote API credentials are configured
func (c *Config) HasCredentials() bool {
	return c.API.Login != "" && c.API.Password != ""
}
