package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/dverkh/authcore/refresh"
)

// Refresh redeems a refresh token for a fresh token pair. Redemption is
// single-use: the presented token is atomically replaced by its successor,
// so of any number of concurrent calls presenting the same token at most one
// succeeds and the rest fail as replays.
//
// As with [Engine.Login], failures are uniform: an unknown token, an expired
// token, a replayed token, and a locked account all return
// [ErrAuthentication].
func (e *Engine) Refresh(ctx context.Context, input RefreshInput) (*RefreshResult, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}

	if input.RefreshToken == "" {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefresh, false, "", "", "", reasonInvalidInput)
		return nil, ErrValidation
	}

	rec, err := e.store.Lookup(ctx, input.RefreshToken)
	if err != nil {
		if errors.Is(err, refresh.ErrTokenNotFound) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefresh, false, "", "", "", reasonTokenUnknown)
			return nil, ErrAuthentication
		}
		return nil, err
	}

	acct, err := e.directory.FindByID(ctx, rec.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefresh, false, rec.AccountID, "", rec.TokenID, reasonAccountMissing)
			return nil, ErrAuthentication
		}
		return nil, err
	}

	now := time.Now()
	if e.lockout.isLockedOut(acct, now) {
		failedCount, lockoutEnd, tripped := e.lockout.recordFailure(acct, now)
		if saveErr := e.directory.SaveLockout(ctx, acct.ID, failedCount, lockoutEnd); saveErr != nil {
			return nil, saveErr
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefresh, false, acct.ID, acct.Email, rec.TokenID, reasonLockedOut)
		if tripped {
			e.metricInc(MetricLockoutTriggered)
			e.emitAudit(ctx, auditEventLockout, false, acct.ID, acct.Email, rec.TokenID, reasonLockedOut)
		}
		return nil, ErrAuthentication
	}

	// An expired token is not a credential failure; it does not touch the
	// lockout counters.
	if !rec.Expires.After(now) {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefresh, false, acct.ID, acct.Email, rec.TokenID, reasonTokenExpired)
		return nil, ErrAuthentication
	}

	minted, err := e.tokens.MintRefresh()
	if err != nil {
		return nil, err
	}

	oldRec, devices, err := e.store.Rotate(ctx, input.RefreshToken, &refresh.Record{
		AccountID: acct.ID,
		TokenID:   minted.ID.String(),
		Expires:   minted.Expires,
	}, minted.Value)
	if err != nil {
		switch {
		case errors.Is(err, refresh.ErrTokenNotFound):
			// The record existed at Lookup and is gone now: a concurrent
			// redemption won the race. Treat as a replay.
			e.metricInc(MetricReplayDetected)
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventTokenReplayed, false, acct.ID, acct.Email, rec.TokenID, reasonTokenReplayed)
			return nil, ErrAuthentication
		case errors.Is(err, refresh.ErrTokenExpired):
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefresh, false, acct.ID, acct.Email, rec.TokenID, reasonTokenExpired)
			return nil, ErrAuthentication
		default:
			return nil, err
		}
	}

	roles, err := e.directory.GetRoles(ctx, acct.ID)
	if err != nil {
		return nil, err
	}

	access, err := e.tokens.MintAccess(acct.ID, acct.Username, acct.Email, roles)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefresh, true, acct.ID, acct.Email, oldRec.TokenID, "")

	return &RefreshResult{
		Devices:        devices,
		AccessToken:    access,
		RefreshToken:   minted.Value,
		RefreshExpires: minted.Expires,
	}, nil
}
