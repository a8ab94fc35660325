package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

type Config struct {
	Address            string        `env:"RUN_ADDRESS" envDefault:"localhost:8080"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"INFO"`
	DatabaseConnection string        `env:"DATABASE_URI"`
	JWTSecret          string        `env:"JWT_SECRET" envDefault:"dontexposethis"`
	GatewayAddress     string        `env:"PAYMENT_GATEWAY_ADDRESS" envDefault:"http://localhost:8090"`
	GatewayWorkers     int           `env:"GATEWAY_WORKERS" envDefault:"10"`
	GatewayInterval    time.Duration `env:"GATEWAY_INTERVAL" envDefault:"5s"`
	TaxName            string        `env:"TAX_NAME" envDefault:"GST"`
	TaxRate            float64       `env:"TAX_RATE" envDefault:"0.15"`
	TaxExclusive       bool          `env:"TAX_EXCLUSIVE" envDefault:"false"`
	RoundingPrecision  int           `env:"ROUNDING_PRECISION" envDefault:"2"`
	AllowPaying        bool          `env:"ALLOW_PAYING" envDefault:"true"`
	AllowCancelling    bool          `env:"ALLOW_CANCELLING" envDefault:"true"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("ENV JWT_SECRET must be set")
	}

	address := flag.String("a", cfg.Address, "{Host:port} for server")
	loglevel := flag.String("l", cfg.LogLevel, "Log level for server")
	gatewayAddress := flag.String("g", cfg.GatewayAddress, "Payment gateway address")
	gatewayWorkers := flag.Int("w", cfg.GatewayWorkers, "Size of gateway polling worker pool")
	gatewayInterval := flag.Duration("i", cfg.GatewayInterval, "Gateway poll interval")
	databaseConnection := flag.String("d", cfg.DatabaseConnection, "Database connection string")
	taxRate := flag.Float64("t", cfg.TaxRate, "Flat tax rate (e.g. 0.15)")

	flag.Parse()

	cfg.Address = *address
	cfg.LogLevel = *loglevel
	cfg.GatewayAddress = *gatewayAddress
	cfg.GatewayWorkers = *gatewayWorkers
	cfg.GatewayInterval = *gatewayInterval
	cfg.DatabaseConnection = *databaseConnection
	cfg.TaxRate = *taxRate

	if cfg.TaxRate < 0 {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	if cfg.RoundingPrecision < 0 {
		return nil, fmt.Errorf("rounding precision must not be negative")
	}

	return cfg, nil
}
