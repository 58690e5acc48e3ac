// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/unclebandit/customers-app/internal/db"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is shared by the server, seeder and worker binaries.
type Config struct {
	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH" envDefault:"customers.db"`
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	AMQPURL     string `env:"AMQP_URL"`
	EventsQueue string `env:"EVENTS_QUEUE" envDefault:"customer_events"`
	SeedFile    string `env:"SEED_FILE" envDefault:"seed/customers.txt"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}
	return Parse()
}

// Parse parses the current environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	// aliases such as sqlite3 or postgresql collapse to the canonical name
	dialect, _ := db.DialectFor(cfg.DBDriver)
	cfg.DBDriver = dialect.Name
	return cfg, nil
}

// Validate accepts every driver name db.Open accepts.
func (c Config) Validate() error {
	dialect, err := db.DialectFor(c.DBDriver)
	if err != nil {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch dialect.Name {
	case DriverSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	}
	if strings.TrimSpace(c.EventsQueue) == "" {
		return fmt.Errorf("EVENTS_QUEUE must not be empty")
	}
	return nil
}
