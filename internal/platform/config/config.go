// Package config loads service configuration from defaults, an optional YAML
// file and BONDBOOK_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"bondbook/internal/bond/validation"
	"bondbook/internal/lei"
	platformstrings "bondbook/pkg/platform/strings"
)

const envPrefix = "BONDBOOK"

// DevJWTSigningKey is used when no signing key is configured. Never rely on it
// outside local development.
const DevJWTSigningKey = "dev-secret-key-change-in-production"

type Config struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LogLevel        string        `mapstructure:"log_level"`
	CurrencyCodes   []string      `mapstructure:"currency_codes"`

	JWT      JWTConfig      `mapstructure:"jwt"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	LEI      LEIConfig      `mapstructure:"lei"`
}

type JWTConfig struct {
	SigningKey string `mapstructure:"signing_key"`
	Issuer     string `mapstructure:"issuer"`
}

// DatabaseConfig selects the bond store. An empty URL keeps bonds in memory.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// RedisConfig configures the token revocation list. An empty URL falls back
// to an in-process list.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig configures audit publishing. No brokers means audit events are
// only logged.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LEIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Addr:            ":8080",
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
		CurrencyCodes:   validation.DefaultCurrencyCodes,
		JWT: JWTConfig{
			SigningKey: DevJWTSigningKey,
			Issuer:     "bondbook",
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: "bondbook.audit",
		},
		LEI: LEIConfig{
			BaseURL: lei.DefaultBaseURL,
			Timeout: lei.DefaultTimeout,
		},
	}
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CurrencyCodes = splitList(cfg.CurrencyCodes)
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("addr", d.Addr)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("currency_codes", d.CurrencyCodes)

	v.SetDefault("jwt.signing_key", d.JWT.SigningKey)
	v.SetDefault("jwt.issuer", d.JWT.Issuer)

	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)

	v.SetDefault("redis.url", d.Redis.URL)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)
	v.SetDefault("redis.min_idle_conns", d.Redis.MinIdleConns)
	v.SetDefault("redis.dial_timeout", d.Redis.DialTimeout)
	v.SetDefault("redis.read_timeout", d.Redis.ReadTimeout)
	v.SetDefault("redis.write_timeout", d.Redis.WriteTimeout)

	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)

	v.SetDefault("lei.base_url", d.LEI.BaseURL)
	v.SetDefault("lei.timeout", d.LEI.Timeout)
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(values []string) []string {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, ",")...)
	}
	return platformstrings.DedupeAndTrim(parts)
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.LEI.Timeout <= 0 {
		errs = append(errs, errors.New("lei.timeout must be positive"))
	}
	if len(c.CurrencyCodes) == 0 {
		errs = append(errs, errors.New("currency_codes must not be empty"))
	}
	if c.JWT.SigningKey == "" {
		errs = append(errs, errors.New("jwt.signing_key is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// UsesDevSigningKey reports whether the development JWT key is in effect.
func (c Config) UsesDevSigningKey() bool {
	return c.JWT.SigningKey == DevJWTSigningKey
}
