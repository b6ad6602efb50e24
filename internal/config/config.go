package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration tree.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Replay   ReplayConfig   `mapstructure:"replay"`
}

// ServerConfig configures the websocket listener and session policy.
type ServerConfig struct {
	WebSocket       WebSocketConfig `mapstructure:"websocket"`
	MaxSessions     int             `mapstructure:"max_sessions"`
	LeasePeriod     time.Duration   `mapstructure:"lease_period"`
	TurnTimeout     time.Duration   `mapstructure:"turn_timeout"`
	DisconnectGrace time.Duration   `mapstructure:"disconnect_grace"`
}

// WebSocketConfig configures the websocket endpoint.
type WebSocketConfig struct {
	Address        string   `mapstructure:"address"`
	Path           string   `mapstructure:"path"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig configures the Postgres connection pool. An empty URL
// disables persistence.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig configures reconnect-token hashing.
type AuthConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// ReplayConfig configures game replay recording.
type ReplayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.max_sessions", 1000)
	v.SetDefault("server.lease_period", 60*time.Second)
	v.SetDefault("server.turn_timeout", 30*time.Second)
	v.SetDefault("server.disconnect_grace", 60*time.Second)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("replay.enabled", true)
	v.SetDefault("replay.dir", "replays")
}

// Load reads configuration from path, with GOSTOP_-prefixed environment
// variables overriding file values. An empty path loads pure defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GOSTOP")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.WebSocket.Address == "" {
		return fmt.Errorf("server.websocket.address must not be empty")
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("server.max_sessions must be positive")
	}
	if c.Server.TurnTimeout <= 0 {
		return fmt.Errorf("server.turn_timeout must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost %d out of range", c.Auth.BcryptCost)
	}
	return nil
}
