package authcore

import (
	"errors"
	"time"
)

// Config groups every tunable of the engine. Configs are copied on
// [Builder.WithConfig] and on Build, so a caller mutating its own copy after
// construction has no effect on a running engine.
type Config struct {
	Tokens  TokenConfig
	Lockout LockoutConfig
	Proof   ProofConfig
	Store   StoreConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// TokenConfig covers both token kinds: the signed short-lived access token
// and the opaque long-lived refresh token.
type TokenConfig struct {
	AccessTokenTTL time.Duration
	SigningMethod  string // "hs256" (default) or "ed25519"
	SigningKey     []byte // hs256 secret, or ed25519 private key
	VerifyKey      []byte // ed25519 public key; unused for hs256
	Issuer         string
	Audience       string
	Leeway         time.Duration

	RefreshTokenLifetime time.Duration
	// RefreshTokenMaxCount caps live refresh tokens per account. When an
	// insert would exceed it, the token with the earliest expiry is evicted
	// first. 0 disables the cap.
	RefreshTokenMaxCount int
}

// LockoutConfig tunes the failed-credential lockout policy.
type LockoutConfig struct {
	// MaxFailedAccessAttempts is the consecutive-failure threshold that
	// trips a lockout.
	MaxFailedAccessAttempts int
	LockoutDuration         time.Duration
}

// ProofConfig tunes proof-token lifetimes. Construction and redemption of the
// tokens themselves belong to the [Directory].
type ProofConfig struct {
	ResetTokenTTL   time.Duration
	ConfirmTokenTTL time.Duration
}

// StoreConfig tunes the Redis refresh-token store.
type StoreConfig struct {
	RedisPrefix string
}

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig tunes the in-process metric counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration. Signing key material has
// no default and must be provided by the caller.
func DefaultConfig() Config {
	return Config{
		Tokens: TokenConfig{
			AccessTokenTTL:       15 * time.Minute,
			SigningMethod:        "hs256",
			RefreshTokenLifetime: 7 * 24 * time.Hour,
			RefreshTokenMaxCount: 5,
		},
		Lockout: LockoutConfig{
			MaxFailedAccessAttempts: 5,
			LockoutDuration:         5 * time.Minute,
		},
		Proof: ProofConfig{
			ResetTokenTTL:   time.Hour,
			ConfirmTokenTTL: 24 * time.Hour,
		},
		Store: StoreConfig{
			RedisPrefix: "ac",
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

// Validate checks the configuration for internally inconsistent or unusable
// values. Build calls it; callers constructing configs by hand can call it
// early to fail fast.
func (c *Config) Validate() error {
	if c.Tokens.AccessTokenTTL <= 0 {
		return errors.New("Tokens.AccessTokenTTL must be positive")
	}
	if c.Tokens.RefreshTokenLifetime <= 0 {
		return errors.New("Tokens.RefreshTokenLifetime must be positive")
	}
	if c.Tokens.AccessTokenTTL >= c.Tokens.RefreshTokenLifetime {
		return errors.New("Tokens.AccessTokenTTL must be shorter than Tokens.RefreshTokenLifetime")
	}
	if c.Tokens.RefreshTokenMaxCount < 0 {
		return errors.New("Tokens.RefreshTokenMaxCount must not be negative")
	}
	switch c.Tokens.SigningMethod {
	case "hs256", "ed25519":
	case "":
		return errors.New("Tokens.SigningMethod is required")
	default:
		return errors.New("Tokens.SigningMethod must be hs256 or ed25519")
	}
	if len(c.Tokens.SigningKey) == 0 {
		return errors.New("Tokens.SigningKey is required")
	}
	if c.Tokens.Leeway < 0 || c.Tokens.Leeway > 2*time.Minute {
		return errors.New("Tokens.Leeway must be between 0 and 2 minutes")
	}
	if c.Lockout.MaxFailedAccessAttempts <= 0 {
		return errors.New("Lockout.MaxFailedAccessAttempts must be positive")
	}
	if c.Lockout.LockoutDuration <= 0 {
		return errors.New("Lockout.LockoutDuration must be positive")
	}
	if c.Proof.ResetTokenTTL <= 0 {
		return errors.New("Proof.ResetTokenTTL must be positive")
	}
	if c.Proof.ConfirmTokenTTL <= 0 {
		return errors.New("Proof.ConfirmTokenTTL must be positive")
	}
	if c.Store.RedisPrefix == "" {
		return errors.New("Store.RedisPrefix is required")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Tokens.SigningKey = cloneBytes(cfg.Tokens.SigningKey)
	out.Tokens.VerifyKey = cloneBytes(cfg.Tokens.VerifyKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
