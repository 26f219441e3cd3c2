package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the connector service and CLI.
type Config struct {
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"` // json or text

	// Default credential object, used when the host does not send one.
	Alive5APIKey             string `mapstructure:"ALIVE5_API_KEY"`
	Alive5BaseURL            string `mapstructure:"ALIVE5_BASE_URL"`
	Alive5HTTPTimeoutSeconds int    `mapstructure:"ALIVE5_HTTP_TIMEOUT_SECONDS"`

	ConnectorHTTPPort        int `mapstructure:"CONNECTOR_HTTP_PORT"`
	MetricsPort              int `mapstructure:"METRICS_PORT"`
	DirectoryCacheTTLSeconds int `mapstructure:"DIRECTORY_CACHE_TTL_SECONDS"`

	// NATS is optional; an empty URL disables the execute consumer.
	NATSUrl            string `mapstructure:"NATS_URL"`
	NATSExecuteSubject string `mapstructure:"NATS_EXECUTE_SUBJECT"`
	NATSQueueGroup     string `mapstructure:"NATS_QUEUE_GROUP"`

	// An empty secret disables bearer-token auth on the host API.
	JWTAccessSecret string `mapstructure:"JWT_ACCESS_SECRET"`
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Alive5HTTPTimeoutSeconds) * time.Second
}

func (c *Config) DirectoryCacheTTL() time.Duration {
	return time.Duration(c.DirectoryCacheTTLSeconds) * time.Second
}

// Load reads configName.yaml from configPath (or the usual fallback locations), then applies
// APP_-prefixed environment variables on top of the defaults.
func Load(configPath, configName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("APP") // APP_LOG_LEVEL, APP_ALIVE5_API_KEY etc.

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ALIVE5_API_KEY", "")
	v.SetDefault("ALIVE5_BASE_URL", "https://api.alive5.com/public/1.1")
	v.SetDefault("ALIVE5_HTTP_TIMEOUT_SECONDS", 30)
	v.SetDefault("CONNECTOR_HTTP_PORT", 8080)
	v.SetDefault("METRICS_PORT", 9095)
	v.SetDefault("DIRECTORY_CACHE_TTL_SECONDS", 300)
	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_EXECUTE_SUBJECT", "alive5.sms.execute")
	v.SetDefault("NATS_QUEUE_GROUP", "alive5_connector_workers")
	v.SetDefault("JWT_ACCESS_SECRET", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Printf("Configuration file '%s.yaml' not found; using defaults and environment variables.", configName)
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
