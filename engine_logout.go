package authcore

import (
	"context"
	"errors"

	"github.com/dverkh/authcore/refresh"
)

// Logout destroys the presented refresh token. The paired access token is
// unaffected; it simply runs out its short TTL.
func (e *Engine) Logout(ctx context.Context, input LogoutInput) (*LogoutResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if input.RefreshToken == "" {
		e.emitAudit(ctx, auditEventLogout, false, "", "", "", reasonInvalidInput)
		return nil, ErrValidation
	}

	rec, err := e.store.Lookup(ctx, input.RefreshToken)
	if err != nil {
		if errors.Is(err, refresh.ErrTokenNotFound) {
			e.emitAudit(ctx, auditEventLogout, false, "", "", "", reasonTokenUnknown)
			return nil, ErrAuthentication
		}
		return nil, err
	}

	if _, err := e.store.Remove(ctx, input.RefreshToken); err != nil {
		return nil, err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, rec.AccountID, "", rec.TokenID, "")

	return &LogoutResult{AccountID: rec.AccountID}, nil
}
