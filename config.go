package authcore

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config carries all engine settings. It replaces ambient environment
// lookups: the cipher passphrase and session lifetime are explicit and
// handed to [Builder.WithConfig] at construction time.
//
// Config instances are intended to be configured during initialization
// and then treated as immutable.
type Config struct {
	Password PasswordConfig
	Cipher   CipherConfig
	TOTP     TOTPConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// PasswordConfig controls the bcrypt work factor.
type PasswordConfig struct {
	Cost int
}

// CipherConfig keys the at-rest encryption of TOTP seeds. The 256-bit
// cipher key is the SHA-256 digest of Passphrase.
type CipherConfig struct {
	Passphrase string
}

// TOTPConfig controls seed provisioning and code verification.
// Skew is the number of 30-second steps accepted on each side of the
// current one; the default of 2 tolerates 60-90 seconds of clock drift.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Algorithm string // "SHA1" (default), "SHA256", "SHA512"
	Skew      int
}

// SessionConfig controls the Redis session store. Lifetime is absolute:
// sessions expire that long after creation regardless of activity.
type SessionConfig struct {
	RedisPrefix string
	Lifetime    time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the settings a production deployment starts
// from. The cipher passphrase has no default and must be set.
func DefaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			Cost: 12,
		},
		TOTP: TOTPConfig{
			Issuer:    "authcore",
			Digits:    6,
			Period:    30,
			Algorithm: "SHA1",
			Skew:      2,
		},
		Session: SessionConfig{
			RedisPrefix: "ac",
			Lifetime:    24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for values the engine cannot run
// with. It is called by [Builder.Build].
func (c Config) Validate() error {
	if c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost {
		return errors.New("password cost out of bcrypt range")
	}
	if c.Cipher.Passphrase == "" {
		return errors.New("cipher passphrase required")
	}
	if c.TOTP.Issuer == "" {
		return errors.New("totp issuer required")
	}
	if c.TOTP.Digits < 6 || c.TOTP.Digits > 10 {
		return errors.New("totp digits must be between 6 and 10")
	}
	if c.TOTP.Period <= 0 {
		return errors.New("totp period must be positive")
	}
	if c.TOTP.Skew < 0 || c.TOTP.Skew > 10 {
		return errors.New("totp skew must be between 0 and 10")
	}
	switch strings.ToUpper(c.TOTP.Algorithm) {
	case "", "SHA1", "SHA256", "SHA512":
	default:
		return errors.New("unsupported totp algorithm")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("session redis prefix required")
	}
	if c.Session.Lifetime <= 0 {
		return errors.New("session lifetime must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive when audit is enabled")
	}
	return nil
}
