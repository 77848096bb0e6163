// Package config loads the CLI configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type AppConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	UserAgent    string `mapstructure:"user_agent"`
}

type StreamConfig struct {
	HeartbeatInterval int      `mapstructure:"heartbeat_interval"` // seconds, 0 disables
	ReconnectInterval int      `mapstructure:"reconnect_interval"` // seconds, 0 disables
	Topics            []string `mapstructure:"topics"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type ObservabilityConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Stream        StreamConfig        `mapstructure:"stream"`
	Log           LogConfig           `mapstructure:"log"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// Load reads config.yaml (or cfgFile when given), merges an optional
// environment-specific overlay (config.prod.yaml etc.), and applies
// DINGSTREAM_* environment overrides.
func Load(cfgFile, env string) (*Config, error) {
	v := viper.New()

	v.SetDefault("stream.heartbeat_interval", 8)
	v.SetDefault("stream.reconnect_interval", 3)
	v.SetDefault("log.level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	if env != "" {
		v.SetConfigName(fmt.Sprintf("config.%s", env))
		_ = v.MergeInConfig() // optional, ignore error if not found
	}

	v.SetEnvPrefix("DINGSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if cfg.App.ClientID == "" || cfg.App.ClientSecret == "" {
		return nil, fmt.Errorf("app.client_id and app.client_secret are required")
	}

	return &cfg, nil
}
