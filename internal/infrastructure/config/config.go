package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const minSecretLength = 32

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Store StoreConfig
	Mongo MongoConfig
	SQL   SQLConfig
	Redis RedisConfig
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET, required"`
	Issuer     string        `env:"JWT_ISSUER, default=auth-service"`
	TokenTTL   time.Duration `env:"TOKEN_TTL,  default=24h"`
	BcryptCost int           `env:"BCRYPT_COST, default=10"`
	// AllowSelfPromotion exposes GET /example/get-admin. Demo only.
	AllowSelfPromotion bool `env:"ALLOW_SELF_PROMOTION, default=true"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER, default=mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth_service"`
}

type SQLConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN"`
	SQLitePath  string `env:"SQLITE_PATH, default=auth.db"`
}

type RedisConfig struct {
	Enabled  bool          `env:"REDIS_ENABLED,   default=false"`
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,        default=0"`
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL, default=5m"`
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("config: JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("config: TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("config: BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}

	switch c.Store.Driver {
	case DriverMongo, DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.SQL.PostgresDSN == "" {
			return fmt.Errorf("config: POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	return nil
}
