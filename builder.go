package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/dverkh/authcore/refresh"
	"github.com/dverkh/authcore/token"
)

// Builder assembles an [Engine]. A builder is single-use: Build wires the
// dependencies once and refuses a second call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	directory Directory
	mailer    Mailer
	auditSink AuditSink

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithDirectory(d Directory) *Builder {
	b.directory = d
	return b
}

func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the token manager, refresh store,
// lockout policy, audit dispatcher, and metrics, and returns a ready engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.directory == nil {
		return nil, errors.New("directory required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mailer := b.mailer
	if mailer == nil {
		mailer = NoOpMailer{}
	}

	tm, err := token.NewManager(token.Config{
		AccessTTL:       cfg.Tokens.AccessTokenTTL,
		RefreshLifetime: cfg.Tokens.RefreshTokenLifetime,
		SigningMethod:   token.SigningMethod(cfg.Tokens.SigningMethod),
		SigningKey:      cloneBytes(cfg.Tokens.SigningKey),
		VerifyKey:       cloneBytes(cfg.Tokens.VerifyKey),
		Issuer:          cfg.Tokens.Issuer,
		Audience:        cfg.Tokens.Audience,
		Leeway:          cfg.Tokens.Leeway,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		directory: b.directory,
		mailer:    mailer,
		tokens:    tm,
		store:     refresh.NewStore(b.redis, cfg.Store.RedisPrefix, cfg.Tokens.RefreshTokenMaxCount),
		lockout: lockoutPolicy{
			maxFailed: cfg.Lockout.MaxFailedAccessAttempts,
			duration:  cfg.Lockout.LockoutDuration,
		},
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}
