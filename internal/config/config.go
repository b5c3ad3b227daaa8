package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/justinabrahms/clickchess/internal/chess"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Development DevelopmentConfig `mapstructure:"development"`
	Rules       RulesConfig       `mapstructure:"rules"`
	Sessions    SessionsConfig    `mapstructure:"sessions"`
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

type DevelopmentConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

type RulesConfig struct {
	ForbidFriendlyCapture bool `mapstructure:"forbid_friendly_capture"`
	ForbidSelfCheck       bool `mapstructure:"forbid_self_check"`
}

// Engine converts the config section into engine rules.
func (r RulesConfig) Engine() chess.Rules {
	return chess.Rules{
		ForbidFriendlyCapture: r.ForbidFriendlyCapture,
		ForbidSelfCheck:       r.ForbidSelfCheck,
	}
}

type SessionsConfig struct {
	MaxGames        int           `mapstructure:"max_games"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.static_dir", "./web/static/")
	v.SetDefault("development.debug", false)
	v.SetDefault("development.log_level", "info")
	v.SetDefault("rules.forbid_friendly_capture", true)
	v.SetDefault("rules.forbid_self_check", false)
	v.SetDefault("sessions.max_games", 1000)
	v.SetDefault("sessions.idle_timeout", 24*time.Hour)
	v.SetDefault("sessions.cleanup_interval", 15*time.Minute)
}

// Load reads config.yaml from . or ./config, overlaid with CLICKCHESS_*
// environment variables. A missing file is not an error.
func Load() (*Config, error) {
	return load(viper.New(), ".", "./config")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Enable environment variables
	v.SetEnvPrefix("CLICKCHESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server.port %d", cfg.Server.Port)
	}
	if cfg.Sessions.MaxGames <= 0 {
		return nil, fmt.Errorf("sessions.max_games must be positive, got %d", cfg.Sessions.MaxGames)
	}

	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
