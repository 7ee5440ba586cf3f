package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server  ServerConfig
	OTLP    OTLPConfig
	Storage StorageConfig
}

type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port string `env:"SERVER_PORT" envDefault:"8080"`
	// MaxUploadBytes caps multipart request bodies (product images).
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"8388608"`
}

type OTLPConfig struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"products-catalog-api"`
	Environment string `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	// Export disables the OTLP exporters when false; traces and metrics
	// then stay local (Prometheus endpoint keeps working).
	Export bool `env:"OTEL_EXPORT_ENABLED" envDefault:"true"`
}

type StorageConfig struct {
	// Driver selects the repository implementation: "memory" or "sqlite".
	Driver         string `env:"STORAGE_DRIVER" envDefault:"memory"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"./products.db"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./internal/infrastructure/repository/sqlite/migrations"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
