package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/federation"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the whole service configuration, read from the environment.
type Config struct {
	HTTPAddr      string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:5000"`
	AppEnv        string        `env:"APP_ENV" envDefault:"development"`
	ClientURL     string        `env:"CLIENT_URL" envDefault:"http://localhost:5173"`
	LoginPath     string        `env:"LOGIN_PATH" envDefault:"/login"`
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"10"`
	HashWorkers   int           `env:"HASH_WORKERS" envDefault:"0"`
	UserStore     string        `env:"USER_STORE" envDefault:"postgres"`
	LinkProvider  bool          `env:"FEDERATION_LINK_PROVIDER" envDefault:"false"`
	SnowflakeNode int64         `env:"SNOWFLAKE_NODE" envDefault:"1"`

	Database database.Config         `envPrefix:"DATABASE_"`
	Log      utilities.Config        `envPrefix:"LOG_"`
	Google   federation.GoogleConfig `envPrefix:"GOOGLE_"`
}

func (c Config) Production() bool {
	return c.AppEnv == "production"
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be within [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if c.HashWorkers < 0 {
		errs = append(errs, fmt.Errorf("HASH_WORKERS must not be negative, got %d", c.HashWorkers))
	}
	if c.UserStore != StorePostgres && c.UserStore != StoreMemory {
		errs = append(errs, fmt.Errorf("USER_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.UserStore))
	}
	return errors.Join(errs...)
}

// Load parses the process environment and validates the result.
func Load() (Config, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
