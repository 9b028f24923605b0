package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"

	EnvProduction = "production"

	devJWTSecret     = "dev-secret-change-me"
	devAdminPassword = "admin123"
)

type Config struct {
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":5000"`
	Environment string     `env:"APP_ENV" envDefault:"development"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// StoreDriver is memory, mongo or sqlite. Empty picks mongo when
	// MONGODB_URI is set and memory otherwise.
	StoreDriver   string `env:"STORE_DRIVER"`
	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"quizdb"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/myquiz.db"`
	RedisURL      string `env:"REDIS_URL"`

	JWTSecret     string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	AdminEmail    string        `env:"ADMIN_EMAIL" envDefault:"admin@myquiz.com"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`

	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW" envDefault:"15m"`

	// AllowedOrigins empty means same-origin only.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
	// is believed when identifying the caller.
	TrustedProxies    []string `env:"TRUSTED_PROXIES" envSeparator:","`
	MaxBodyBytes      int64    `env:"MAX_BODY_BYTES" envDefault:"10485760"`
	SPADir            string   `env:"SPA_DIR"`
	SeedSampleQuizzes bool     `env:"SEED_SAMPLE_QUIZZES" envDefault:"true"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	if c.StoreDriver == "" {
		c.StoreDriver = DriverMemory
		if c.MongoURI != "" {
			c.StoreDriver = DriverMongo
		}
	}

	c.AllowedOrigins = trimList(c.AllowedOrigins)
	c.TrustedProxies = trimList(c.TrustedProxies)
}

func trimList(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, v := range c.TrustedProxies {
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func (c *Config) Production() bool { return c.Environment == EnvProduction }

// Validate rejects settings that cannot work, and insecure defaults in
// production.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo store driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.LoginMaxAttempts < 1 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be at least 1"))
	}
	if c.LoginWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_WINDOW must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}

	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}

	if c.Production() {
		if c.JWTSecret == devJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set in production"))
		}
		if c.AdminPassword == "" || c.AdminPassword == devAdminPassword {
			errs = append(errs, errors.New("ADMIN_PASSWORD must be set in production"))
		}
		for _, o := range c.AllowedOrigins {
			if o == "*" {
				errs = append(errs, errors.New("ALLOWED_ORIGINS must not contain * in production"))
			}
		}
	}

	return errors.Join(errs...)
}
