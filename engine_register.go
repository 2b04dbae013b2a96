package authcore

import (
	"context"
	"errors"
	"strings"
)

// Register creates an account and mails an email-confirmation link built on
// the caller-supplied ClientURI. The new account starts unconfirmed and
// cannot log in until the link is redeemed through [Engine.ConfirmEmail].
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}

	email, ok := normalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)
	if !ok || username == "" || input.Password == "" {
		e.emitAudit(ctx, auditEventRegister, false, "", input.Email, "", reasonInvalidInput)
		return nil, ErrValidation
	}
	callback, ok := validateCallbackURI(input.ClientURI)
	if !ok {
		e.emitAudit(ctx, auditEventRegister, false, "", email, "", reasonInvalidInput)
		return nil, ErrValidation
	}

	acct, err := e.directory.Create(ctx, CreateAccountInput{
		Username: username,
		Email:    email,
		Password: input.Password,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegister, false, "", email, "", reasonDuplicateEmail)
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	proof, err := e.directory.GenerateProof(ctx, acct.ID, ProofConfirmEmail, e.config.Proof.ConfirmTokenTTL)
	if err != nil {
		return nil, err
	}

	err = e.mailer.Send(ctx, Mail{
		To:      acct.Email,
		Subject: "Confirm your email",
		Callback: callbackWithParams(callback, map[string]string{
			callbackParamToken: proof,
			callbackParamEmail: acct.Email,
		}),
	})
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegister, true, acct.ID, email, "", "")

	return &RegisterResult{AccountID: acct.ID}, nil
}
