package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type PayloadFormat string

const (
	// PayloadText stores the decoded data verbatim and reads it back as {id, data}.
	PayloadText PayloadFormat = "text"
	// PayloadJSON requires the decoded data to be a JSON document and reads
	// back the parsed document in place of the row.
	PayloadJSON PayloadFormat = "json"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Push    PushConfig    `mapstructure:"push"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type StorageConfig struct {
	Driver        string         `mapstructure:"driver"`
	SQLite        SQLiteConfig   `mapstructure:"sqlite"`
	Postgres      PostgresConfig `mapstructure:"postgres"`
	ResetOnStart  bool           `mapstructure:"reset_on_start"`
	PayloadFormat PayloadFormat  `mapstructure:"payload_format"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type PushConfig struct {
	VerificationToken string `mapstructure:"verification_token"`
	MaxBodyBytes      int64  `mapstructure:"max_body_bytes"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pubsubsink")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/pubsubsink")
	}

	setDefaults(v)

	v.SetEnvPrefix("PUBSUBSINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.PayloadFormat {
	case PayloadText, PayloadJSON:
	default:
		return fmt.Errorf("invalid storage.payload_format %q: want %q or %q", c.Storage.PayloadFormat, PayloadText, PayloadJSON)
	}
	if c.Push.MaxBodyBytes <= 0 {
		return fmt.Errorf("push.max_body_bytes must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite.path", "./messages.db")
	v.SetDefault("storage.postgres.dsn", "")
	v.SetDefault("storage.reset_on_start", false)
	v.SetDefault("storage.payload_format", string(PayloadText))

	v.SetDefault("push.verification_token", "")
	// Pub/Sub caps a single message at 10MB.
	v.SetDefault("push.max_body_bytes", 10<<20)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
