// Package config loads application configuration from environment
// variables.  A .env file, when present, is read by main before Load.
package config

import (
    "errors"
    "fmt"
    "strings"

    "github.com/caarlos0/env/v11"
)

// Storage drivers.
const (
    DriverMySQL  = "mysql"
    DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The DB_* variables are only required with the
// mysql storage driver.
type Config struct {
    Env            string `env:"APP_ENV" envDefault:"dev"`       // application environment (dev, local, prod)
    Port           string `env:"APP_PORT" envDefault:"8080"`     // HTTP port to listen on
    LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`    // debug, info, warn or error
    StorageDriver  string `env:"STORAGE_DRIVER" envDefault:"mysql"`
    DBUser         string `env:"DB_USER"`
    DBPass         string `env:"DB_PASS"` // empty allowed
    DBHost         string `env:"DB_HOST" envDefault:"127.0.0.1"`
    DBPort         string `env:"DB_PORT" envDefault:"3306"`
    DBName         string `env:"DB_NAME"`
    DBAutoMigrate  bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"` // apply the embedded schema at startup
    JWTSecret      string `env:"JWT_SECRET,required,notEmpty"`
    AccessTTLMin   int    `env:"ACCESS_TOKEN_TTL_MIN" envDefault:"15"`
    RefreshTTLDays int    `env:"REFRESH_TOKEN_TTL_DAYS" envDefault:"30"`
    BcryptCost     int    `env:"BCRYPT_COST" envDefault:"12"`
    RabbitMQURL    string `env:"RABBITMQ_URL"` // empty disables event publishing
    EventLogDir    string `env:"EVENT_LOG_DIR" envDefault:"logs"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
    var cfg Config
    if err := env.Parse(&cfg); err != nil {
        return Config{}, fmt.Errorf("parse env: %w", err)
    }
    cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
    if err := cfg.Validate(); err != nil {
        return Config{}, err
    }
    return cfg, nil
}

// Validate checks values that cannot be expressed with struct tags.
func (c Config) Validate() error {
    var errs []error
    switch c.StorageDriver {
    case DriverMySQL:
        if c.DBUser == "" {
            errs = append(errs, errors.New("DB_USER is required for the mysql driver"))
        }
        if c.DBName == "" {
            errs = append(errs, errors.New("DB_NAME is required for the mysql driver"))
        }
    case DriverMemory:
    default:
        errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
    }
    if c.AccessTTLMin < 1 {
        errs = append(errs, errors.New("ACCESS_TOKEN_TTL_MIN must be positive"))
    }
    if c.RefreshTTLDays < 1 {
        errs = append(errs, errors.New("REFRESH_TOKEN_TTL_DAYS must be positive"))
    }
    if c.BcryptCost < 4 || c.BcryptCost > 31 {
        errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
    }
    return errors.Join(errs...)
}

// IsLocal reports whether the service runs on a developer machine.
func (c Config) IsLocal() bool {
    switch strings.ToLower(c.Env) {
    case "dev", "local", "test":
        return true
    }
    return false
}
