package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/careflow/hospital-api/internal/email"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Queue    QueueConfig    `mapstructure:"queue"`
	SMTP     email.Config   `mapstructure:"smtp"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	HTTP     HTTPConfig     `mapstructure:"http"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

// JWTConfig only verifies tokens. Issuing them is the identity provider's
// job.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// QueueConfig tunes the stale-entry sweeper. Entries still waiting at
// reception after StaleAfter are cancelled by the worker.
type QueueConfig struct {
	StaleAfter    time.Duration `mapstructure:"stale_after"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type AlertsConfig struct {
	EmergencyEmail string `mapstructure:"emergency_email"`
}

type HTTPConfig struct {
	RateLimitRPS float64 `mapstructure:"rate_limit_rps"`
	RateBurst    int     `mapstructure:"rate_burst"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)
	viper.SetDefault("queue.stale_after", 4*time.Hour)
	viper.SetDefault("queue.sweep_interval", 15*time.Minute)
	viper.SetDefault("http.rate_limit_rps", 50)
	viper.SetDefault("http.rate_burst", 100)
}
