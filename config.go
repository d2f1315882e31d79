package goAccount

import (
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/password"
)

// Config is the Manager configuration. Start from DefaultConfig and override
// fields; Builder.Build validates the result.
type Config struct {
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

// PasswordConfig controls password policy and the hash scheme.
//
// Scheme and Encoding determine the bytes fed to the digest. Changing either
// makes every stored hash unverifiable.
type PasswordConfig struct {
	MinLength int
	Scheme    string
	Encoding  string

	Argon2Memory      uint32
	Argon2Time        uint32
	Argon2Parallelism uint8
	Argon2KeyLength   uint32
}

// PasswordResetConfig controls reset token lifetime.
type PasswordResetConfig struct {
	TokenExpiration time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the documented defaults: minimum password length 6,
// reset tokens valid for 15 minutes, SHA-256 over UTF-8.
func DefaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			MinLength:         6,
			Scheme:            string(password.SchemeSHA256),
			Encoding:          string(password.EncodingUTF8),
			Argon2Memory:      64 * 1024,
			Argon2Time:        3,
			Argon2Parallelism: 2,
			Argon2KeyLength:   32,
		},
		PasswordReset: PasswordResetConfig{
			TokenExpiration: 15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	switch password.Scheme(c.Password.Scheme) {
	case password.SchemeSHA256, password.SchemeArgon2id:
	default:
		return errors.New("unsupported Password Scheme")
	}
	switch password.Encoding(c.Password.Encoding) {
	case password.EncodingUTF8, password.EncodingUTF16:
	default:
		return errors.New("unsupported Password Encoding")
	}

	if c.PasswordReset.TokenExpiration <= 0 {
		return errors.New("PasswordReset TokenExpiration must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func (c Config) hasherConfig() password.Config {
	return password.Config{
		Scheme:   password.Scheme(c.Password.Scheme),
		Encoding: password.Encoding(c.Password.Encoding),
		Argon2: password.Argon2Params{
			Memory:      c.Password.Argon2Memory,
			Time:        c.Password.Argon2Time,
			Parallelism: c.Password.Argon2Parallelism,
			KeyLength:   c.Password.Argon2KeyLength,
		},
	}
}
