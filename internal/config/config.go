package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	Port         int    `env:"PORT" envDefault:"8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv       string `env:"APP_ENV" envDefault:"production"`
	JWTSecret    string `env:"JWT_SECRET,required"`
	JWTExpiryMin int    `env:"JWT_EXPIRY_MIN" envDefault:"1440"`

	// StoreBackend selects where the ledger blob lives: file, postgres, or memory.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"file"`
	StorePath    string `env:"STORE_PATH" envDefault:"data/ledger.json"`
	DatabaseURL  string `env:"DATABASE_URL"`

	// OpeningBalance is the registration welcome bonus, in minor units.
	OpeningBalance int64 `env:"OPENING_BALANCE" envDefault:"10000"`

	KafkaBrokers []string `env:"KAFKA_BROKERS"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
