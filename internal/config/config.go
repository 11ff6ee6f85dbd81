// Package config loads backend configuration from file, environment and
// defaults, in that order of increasing precedence for env overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full backend configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Stream StreamConfig `mapstructure:"stream"`
	Market MarketConfig `mapstructure:"market"`
}

// ServerConfig configures the HTTP/WebSocket listener.
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	MetricsPort   int           `mapstructure:"metrics_port"`
}

// StreamConfig configures subscription cadence.
type StreamConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	ErrorInterval time.Duration `mapstructure:"error_interval"`
}

// MarketConfig configures the data provider.
type MarketConfig struct {
	// Mode selects the provider implementation. Only "simulated" is
	// currently wired.
	Mode         string        `mapstructure:"mode"`
	Seed         int64         `mapstructure:"seed"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// Load reads configuration. path may be empty, in which case defaults and
// SIGNAL_* environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.enable_metrics", true)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("stream.interval", 5*time.Second)
	v.SetDefault("stream.error_interval", 10*time.Second)
	v.SetDefault("market.mode", "simulated")
	v.SetDefault("market.seed", 1)
	v.SetDefault("market.fetch_timeout", 10*time.Second)

	v.SetEnvPrefix("SIGNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Stream.Interval <= 0 {
		return nil, fmt.Errorf("stream.interval must be positive")
	}
	if cfg.Stream.ErrorInterval < cfg.Stream.Interval {
		return nil, fmt.Errorf("stream.error_interval must be at least stream.interval")
	}
	return &cfg, nil
}
