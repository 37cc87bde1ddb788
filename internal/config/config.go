// Package config loads service settings from the environment through viper.
package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Supported values for DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds everything needed to start the service.
type Config struct {
	AppPort        string
	DBDriver       string
	DBDSN          string
	DBMaxOpenConns int
	RabbitMQURL    string
	RabbitMQQueue  string
	LogLevel       zerolog.Level
	LogFormat      string
	MetricsEnabled bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":5000")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_DSN", "db.sqlite")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "product_events")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("METRICS_ENABLED", true)
}

// Load reads the configuration from v, falling back to defaults and the
// environment.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("LOG_LEVEL")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", v.GetString("LOG_LEVEL"), err)
	}

	cfg := Config{
		AppPort:        v.GetString("APP_PORT"),
		DBDriver:       strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:          v.GetString("DB_DSN"),
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:  v.GetString("RABBITMQ_QUEUE"),
		LogLevel:       level,
		LogFormat:      strings.ToLower(v.GetString("LOG_FORMAT")),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
	}

	switch cfg.DBDriver {
	case DriverSQLite, DriverPostgres:
		if cfg.DBDSN == "" {
			return Config{}, fmt.Errorf("DB_DSN is required for driver %q", cfg.DBDriver)
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres, memory)", cfg.DBDriver)
	}

	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("unsupported LOG_FORMAT %q", cfg.LogFormat)
	}
	if cfg.AppPort == "" {
		return Config{}, fmt.Errorf("APP_PORT must not be empty")
	}
	return cfg, nil
}
