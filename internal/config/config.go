package config

import (
	"time"

	"trends-go/pkg/backend"
	"trends-go/pkg/logger"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Limiter  LimiterConfig  `mapstructure:"limiter"`
	Submit   SubmitConfig   `mapstructure:"submit"`
	Poll     PollConfig     `mapstructure:"poll"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Keywords KeywordsConfig `mapstructure:"keywords"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Backend  backend.Config `mapstructure:"backend"`
	Logger   logger.Config  `mapstructure:"logger"`
}

type APIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Login     string `mapstructure:"login"`
	Password  string `mapstructure:"password"`
	Location  string `mapstructure:"location"`
	Language  string `mapstructure:"language"`
	TimeRange string `mapstructure:"time_range"`
	Geo       string `mapstructure:"geo"` // trends link geo code
}

type LimiterConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type SubmitConfig struct {
	Workers     int           `mapstructure:"workers"`
	BatchSize   int           `mapstructure:"batch_size"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	Factor      float64       `mapstructure:"factor"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	MaxWait  time.Duration `mapstructure:"max_wait"`
}

type FetchConfig struct {
	Workers    int           `mapstructure:"workers"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxEntries int           `mapstructure:"max_entries"`
}

type KeywordsConfig struct {
	File  string `mapstructure:"file"`
	Limit int    `mapstructure:"limit"`
}

type StorageConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	WebsiteFile string `mapstructure:"website_file"`
}

type ServerConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	StaticDir   string        `mapstructure:"static_dir"`
	OpenBrowser bool          `mapstructure:"open_browser"`
	StaleAfter  time.Duration `mapstructure:"stale_after"`
	RefreshCron string        `mapstructure:"refresh_cron"`
	// refresh stale data in the background on startup
	RefreshStale bool `mapstructure:"refresh_stale"`
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
	Set(key string, value interface{})
}
