package authcore

import (
	"context"
	"errors"
)

// Query parameter names used in mailed callback links.
const (
	callbackParamToken = "token"
	callbackParamEmail = "email"
)

// ForgotPassword issues a password-reset proof and mails a callback link
// built on the caller-supplied ClientURI. The proof is single-use and
// purpose-bound; only an account with a confirmed email gets one.
//
// An unknown or unconfirmed email fails with [ErrAuthentication], the same
// shape as every other failure, so the endpoint cannot be used to probe
// which addresses are registered.
func (e *Engine) ForgotPassword(ctx context.Context, input ForgotPasswordInput) (*ForgotPasswordResult, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}

	email, ok := normalizeEmail(input.Email)
	if !ok {
		e.emitAudit(ctx, auditEventForgotPass, false, "", input.Email, "", reasonInvalidInput)
		return nil, ErrValidation
	}
	callback, ok := validateCallbackURI(input.ClientURI)
	if !ok {
		e.emitAudit(ctx, auditEventForgotPass, false, "", email, "", reasonInvalidInput)
		return nil, ErrValidation
	}

	acct, err := e.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, auditEventForgotPass, false, "", email, "", reasonAccountMissing)
			return nil, ErrAuthentication
		}
		return nil, err
	}
	if !acct.EmailConfirmed {
		e.emitAudit(ctx, auditEventForgotPass, false, acct.ID, email, "", reasonEmailUnconfirmed)
		return nil, ErrAuthentication
	}

	proof, err := e.directory.GenerateProof(ctx, acct.ID, ProofResetPassword, e.config.Proof.ResetTokenTTL)
	if err != nil {
		return nil, err
	}

	err = e.mailer.Send(ctx, Mail{
		To:      acct.Email,
		Subject: "Reset your password",
		Callback: callbackWithParams(callback, map[string]string{
			callbackParamToken: proof,
			callbackParamEmail: acct.Email,
		}),
	})
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventForgotPass, true, acct.ID, email, "", "")

	return &ForgotPasswordResult{AccountID: acct.ID}, nil
}

// ResetPassword redeems a reset proof and installs the new password. A
// successful reset also clears the account's lockout state, so a user locked
// out of a forgotten password is not still locked out of the new one.
func (e *Engine) ResetPassword(ctx context.Context, input ResetPasswordInput) (*ResetPasswordResult, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}

	email, ok := normalizeEmail(input.Email)
	if !ok || input.ResetProof == "" || input.NewPassword == "" {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventResetPass, false, "", input.Email, "", reasonInvalidInput)
		return nil, ErrValidation
	}

	acct, err := e.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricPasswordResetFailure)
			e.emitAudit(ctx, auditEventResetPass, false, "", email, "", reasonAccountMissing)
			return nil, ErrAuthentication
		}
		return nil, err
	}

	redeemed, err := e.directory.RedeemProof(ctx, acct.ID, input.ResetProof, ProofResetPassword)
	if err != nil {
		return nil, err
	}
	if !redeemed {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventResetPass, false, acct.ID, email, "", reasonProofInvalid)
		return nil, ErrAuthentication
	}

	if err := e.directory.SetPassword(ctx, acct.ID, input.NewPassword); err != nil {
		return nil, err
	}

	failedCount, lockoutEnd := e.lockout.recordSuccess()
	if err := e.directory.SaveLockout(ctx, acct.ID, failedCount, lockoutEnd); err != nil {
		return nil, err
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventResetPass, true, acct.ID, email, "", "")

	return &ResetPasswordResult{AccountID: acct.ID}, nil
}

// ConfirmEmail redeems a confirmation proof and marks the account's email
// confirmed, which is the gate [Engine.Login] enforces before issuing
// tokens.
func (e *Engine) ConfirmEmail(ctx context.Context, input ConfirmEmailInput) (*ConfirmEmailResult, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}

	email, ok := normalizeEmail(input.Email)
	if !ok || input.ConfirmationProof == "" {
		e.metricInc(MetricEmailConfirmFailure)
		e.emitAudit(ctx, auditEventConfirmEmail, false, "", input.Email, "", reasonInvalidInput)
		return nil, ErrValidation
	}

	acct, err := e.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricEmailConfirmFailure)
			e.emitAudit(ctx, auditEventConfirmEmail, false, "", email, "", reasonAccountMissing)
			return nil, ErrAuthentication
		}
		return nil, err
	}

	redeemed, err := e.directory.RedeemProof(ctx, acct.ID, input.ConfirmationProof, ProofConfirmEmail)
	if err != nil {
		return nil, err
	}
	if !redeemed {
		e.metricInc(MetricEmailConfirmFailure)
		e.emitAudit(ctx, auditEventConfirmEmail, false, acct.ID, email, "", reasonProofInvalid)
		return nil, ErrAuthentication
	}

	if err := e.directory.SetEmailConfirmed(ctx, acct.ID); err != nil {
		return nil, err
	}

	e.metricInc(MetricEmailConfirmSuccess)
	e.emitAudit(ctx, auditEventConfirmEmail, true, acct.ID, email, "", "")

	return &ConfirmEmailResult{AccountID: acct.ID}, nil
}
