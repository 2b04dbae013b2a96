package authcore

import (
	"context"
	"time"

	"github.com/dverkh/authcore/refresh"
	"github.com/dverkh/authcore/token"
)

// Engine is the account-authentication core. Construct one with [New] and
// its builder; the zero value is not usable. All methods are safe for
// concurrent use.
type Engine struct {
	config    Config
	directory Directory
	mailer    Mailer
	tokens    *token.Manager
	store     *refresh.Store
	lockout   lockoutPolicy
	audit     *auditDispatcher
	metrics   *Metrics
}

// Close drains and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.close()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.droppedCount()
}

// MetricsSnapshot returns a point-in-time copy of all engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	email string,
	tokenID string,
	reason string,
) {
	if e == nil || e.audit == nil {
		return
	}

	e.audit.emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		TokenID:   tokenID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Reason:    reason,
	})
}

// ValidateAccess verifies an access token offline and returns the identity
// it asserts. No store or directory round trip happens; a token stays valid
// until its expiry even if the account was locked afterwards.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		e.metricInc(MetricValidateAccessFailure)
		return nil, ErrUnauthorized
	}

	return &Identity{
		AccountID: claims.Subject,
		Username:  claims.Username,
		Email:     claims.Email,
		Roles:     claims.Roles,
	}, nil
}

// SweepExpired removes expired entries from the refresh-token indexes. See
// the authcore-sweeper command for periodic invocation.
func (e *Engine) SweepExpired(ctx context.Context) (removed int64, err error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}
	return e.store.SweepExpired(ctx)
}

// StorePing reports refresh-store reachability and round-trip latency.
func (e *Engine) StorePing(ctx context.Context) (time.Duration, error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}
	return e.store.Ping(ctx)
}
