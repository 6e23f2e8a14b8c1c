package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Role table sources.
const (
	RoleTableStatic   = "static"
	RoleTableDatabase = "database"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	JWTSecret string `env:"JWT_SECRET"`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=720h"`

	// DeviceID namespaces the durable selection keys.
	DeviceID        string `env:"DEVICE_ID,         default=default"`
	RoleTableSource string `env:"ROLE_TABLE_SOURCE, default=static"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Activity ActivityConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=porchlite"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,  default=true"`
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

type ActivityConfig struct {
	SoftThreshold time.Duration `env:"ACTIVITY_SOFT_THRESHOLD, default=5m"`
	HardThreshold time.Duration `env:"ACTIVITY_HARD_THRESHOLD, default=15m"`
	CheckInterval time.Duration `env:"ACTIVITY_CHECK_INTERVAL, default=60s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must not be shorter than ACCESS_TOKEN_TTL"))
	}
	if c.Activity.SoftThreshold <= 0 || c.Activity.CheckInterval <= 0 {
		errs = append(errs, errors.New("activity durations must be positive"))
	}
	if c.Activity.HardThreshold <= c.Activity.SoftThreshold {
		errs = append(errs, errors.New("ACTIVITY_HARD_THRESHOLD must exceed ACTIVITY_SOFT_THRESHOLD"))
	}
	if c.RoleTableSource != RoleTableStatic && c.RoleTableSource != RoleTableDatabase {
		errs = append(errs, fmt.Errorf("ROLE_TABLE_SOURCE must be %q or %q", RoleTableStatic, RoleTableDatabase))
	}
	if c.DeviceID == "" {
		errs = append(errs, errors.New("DEVICE_ID must not be empty"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
