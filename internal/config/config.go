package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings. Environment names derive
// from the struct path, so Addr resolves as S2W_SERVER_ADDR.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// JWTConfig holds admin token signing settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// SMTPConfig holds reward notification mail settings. Mail is disabled
// when Host is empty.
type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

// RedisConfig holds optional Redis settings for the distributed play lock.
// The lock is disabled when Addr is empty.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb" split_words:"true"`
	MaxBackups int    `yaml:"max-backups" split_words:"true"`
	MaxAgeDays int    `yaml:"max-age-days" split_words:"true"`
}

// PlayConfig holds play workflow tuning.
type PlayConfig struct {
	Cooldown time.Duration `yaml:"cooldown"`
	LockTTL  time.Duration `yaml:"lock-ttl" split_words:"true"`
}

// Config is the process-wide configuration, constructed once at startup
// and passed by reference into the services that need it.
type Config struct {
	DatabaseDSN string       `yaml:"database-dsn" split_words:"true"`
	Server      ServerConfig `yaml:"server"`
	JWT         JWTConfig    `yaml:"jwt"`
	SMTP        SMTPConfig   `yaml:"smtp"`
	Redis       RedisConfig  `yaml:"redis"`
	Log         LogConfig    `yaml:"log"`
	Play        PlayConfig   `yaml:"play"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		JWT:    JWTConfig{Expiry: 12 * time.Hour},
		SMTP:   SMTPConfig{Port: 587},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Play: PlayConfig{
			Cooldown: 24 * time.Hour,
			LockTTL:  10 * time.Second,
		},
	}
}

// Load builds the configuration in three layers: built-in defaults, the
// YAML file when present, then S2W_-prefixed environment variables. A
// missing file is not an error so container deployments can run on
// environment variables alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	trimmed := strings.TrimSpace(path)
	if trimmed != "" {
		data, errRead := os.ReadFile(trimmed)
		switch {
		case errRead == nil:
			if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
				return nil, fmt.Errorf("config: parse %s: %w", trimmed, errUnmarshal)
			}
		case os.IsNotExist(errRead):
			// File is optional.
		default:
			return nil, fmt.Errorf("config: read %s: %w", trimmed, errRead)
		}
	}

	if errEnv := envconfig.Process("S2W", cfg); errEnv != nil {
		return nil, fmt.Errorf("config: env: %w", errEnv)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return fmt.Errorf("config: missing database-dsn")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: missing jwt secret")
	}
	if c.Play.Cooldown <= 0 {
		return fmt.Errorf("config: play cooldown must be positive")
	}
	return nil
}
