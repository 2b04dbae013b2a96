package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/dverkh/authcore/refresh"
)

// Login authenticates an email/password pair and starts a session: one
// opaque refresh token is stored (evicting the account's oldest-expiring
// token if it is at capacity) and one signed access token is minted.
//
// Every credential-shaped failure — unknown email, wrong password, locked
// account, unconfirmed email — comes back as [ErrAuthentication] so the
// error surface does not leak which accounts exist or what state they are
// in. The distinction is preserved in audit events.
func (e *Engine) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}

	email, ok := normalizeEmail(input.Email)
	if !ok || input.Password == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, "", input.Email, "", reasonInvalidInput)
		return nil, ErrValidation
	}

	acct, err := e.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLogin, false, "", email, "", reasonAccountMissing)
			return nil, ErrAuthentication
		}
		return nil, err
	}

	now := time.Now()
	if e.lockout.isLockedOut(acct, now) {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, acct.ID, email, "", reasonLockedOut)
		return nil, ErrAuthentication
	}

	match, err := e.directory.VerifyPassword(ctx, acct.ID, input.Password)
	if err != nil {
		return nil, err
	}
	if !match {
		failedCount, lockoutEnd, tripped := e.lockout.recordFailure(acct, now)
		if saveErr := e.directory.SaveLockout(ctx, acct.ID, failedCount, lockoutEnd); saveErr != nil {
			return nil, saveErr
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, acct.ID, email, "", reasonPasswordMismatch)
		if tripped {
			e.metricInc(MetricLockoutTriggered)
			e.emitAudit(ctx, auditEventLockout, false, acct.ID, email, "", reasonPasswordMismatch)
		}
		return nil, ErrAuthentication
	}

	if acct.FailedAccessCount != 0 || acct.LockoutEnd != nil {
		failedCount, lockoutEnd := e.lockout.recordSuccess()
		if err := e.directory.SaveLockout(ctx, acct.ID, failedCount, lockoutEnd); err != nil {
			return nil, err
		}
	}

	if !acct.EmailConfirmed {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, acct.ID, email, "", reasonEmailUnconfirmed)
		return nil, ErrAuthentication
	}

	roles, err := e.directory.GetRoles(ctx, acct.ID)
	if err != nil {
		return nil, err
	}

	minted, err := e.tokens.MintRefresh()
	if err != nil {
		return nil, err
	}

	evicted, err := e.store.Add(ctx, &refresh.Record{
		AccountID: acct.ID,
		TokenID:   minted.ID.String(),
		Expires:   minted.Expires,
	}, minted.Value)
	if err != nil {
		return nil, err
	}
	for i := 0; i < evicted; i++ {
		e.metricInc(MetricTokenEvicted)
	}
	if evicted > 0 {
		e.emitAudit(ctx, auditEventTokenEvicted, true, acct.ID, email, minted.ID.String(), "")
	}

	access, err := e.tokens.MintAccess(acct.ID, acct.Username, acct.Email, roles)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLogin, true, acct.ID, email, minted.ID.String(), "")

	return &LoginResult{
		AccessToken:    access,
		RefreshToken:   minted.Value,
		RefreshExpires: minted.Expires,
	}, nil
}
