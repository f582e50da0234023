// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token codec) via constructors.
  - Zero Hidden State: No global variables are used to store config.

The token signing secret and both token lifetimes have no defaults: the
process refuses to start without them.
*/
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/wingconfig/internal/platform/constants"
	"github.com/taibuivan/wingconfig/internal/platform/sec"
)

// # Configuration Schema

// Config holds all runtime configuration for the config admin API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Key-Value store (Redis), used for login throttling
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing. Secret and lifetimes are mandatory.
	JWTSecret       string        `env:"JWT_SECRET,required,unset"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL,required"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL,required"`

	// Login lockout policy
	MaxFailedLoginAttempts int           `env:"LOGIN_MAX_FAILED_ATTEMPTS" envDefault:"5"`
	LockoutDuration        time.Duration `env:"LOGIN_LOCKOUT_DURATION"    envDefault:"30m"`

	// Login throttling per client IP
	LoginThrottleLimit  int           `env:"LOGIN_THROTTLE_LIMIT"  envDefault:"20"`
	LoginThrottleWindow time.Duration `env:"LOGIN_THROTTLE_WINDOW" envDefault:"1m"`

	// Load balancers allowed to set X-Forwarded-For / X-Real-IP, as CIDRs or
	// bare addresses. Empty means the socket address is the client address.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:".wingbank.com.kh"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var problems []error

	if len(c.JWTSecret) < constants.MinJWTSecretBytes {
		problems = append(problems, fmt.Errorf("JWT_SECRET must be at least %d bytes", constants.MinJWTSecretBytes))
	}
	if c.AccessTokenTTL <= 0 {
		problems = append(problems, errors.New("JWT_ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshTokenTTL <= 0 {
		problems = append(problems, errors.New("JWT_REFRESH_TOKEN_TTL must be positive"))
	}
	if c.MaxFailedLoginAttempts < 1 {
		problems = append(problems, errors.New("LOGIN_MAX_FAILED_ATTEMPTS must be at least 1"))
	}
	if c.LockoutDuration <= 0 {
		problems = append(problems, errors.New("LOGIN_LOCKOUT_DURATION must be positive"))
	}

	if _, err := c.ProxyPrefixes(); err != nil {
		problems = append(problems, err)
	}

	return errors.Join(problems...)
}

// ProxyPrefixes parses TrustedProxies. A bare address becomes a single-host prefix.
func (c *Config) ProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid entry %q", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// TokenConfig builds the immutable signing configuration injected into the token codec.
func (c *Config) TokenConfig() sec.TokenConfig {
	return sec.TokenConfig{
		Secret:          []byte(c.JWTSecret),
		Issuer:          constants.AuthIssuer,
		AccessTokenTTL:  c.AccessTokenTTL,
		RefreshTokenTTL: c.RefreshTokenTTL,
	}
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// # Bootstrap Configuration

// SeedConfig holds the settings of the administrator bootstrap command.
type SeedConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	AdminEmail    string `env:"SEED_ADMIN_EMAIL,required"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD,required,unset"`
	AdminFullName string `env:"SEED_ADMIN_FULL_NAME" envDefault:"Administrator"`
}

// minSeedPasswordLength is the shortest bootstrap password accepted.
const minSeedPasswordLength = 8

// LoadSeed parses and validates the bootstrap settings.
func LoadSeed() (*SeedConfig, error) {
	cfg := &SeedConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if len(cfg.AdminPassword) < minSeedPasswordLength {
		return nil, fmt.Errorf("config: SEED_ADMIN_PASSWORD must be at least %d characters", minSeedPasswordLength)
	}

	return cfg, nil
}
