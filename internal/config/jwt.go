package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTIssuer is the issuer claim written to and required on tokens
const DefaultJWTIssuer = "jobfit"

// JWTConfig holds configuration for bearer-token validation and issuing.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
	Issuer          string
}

// NewJWTConfig reads JWT_SECRET (required), JWT_EXPIRATION_HOURS (default: 24) and
// JWT_ISSUER (default: jobfit) through getenv.
func NewJWTConfig(getenv func(string) string) (*JWTConfig, error) {
	secret := getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	expirationStr := strings.TrimSpace(getenv("JWT_EXPIRATION_HOURS"))
	if expirationStr == "" {
		expirationStr = "24"
	}
	expirationHours, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
	}

	issuer := strings.TrimSpace(getenv("JWT_ISSUER"))
	if issuer == "" {
		issuer = DefaultJWTIssuer
	}

	cfg := &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
		Issuer:          issuer,
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Expiration returns the token lifetime
func (c *JWTConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
