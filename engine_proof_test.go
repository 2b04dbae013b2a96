package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestForgotResetFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	acct := env.seedAccount(t, "alice@example.com", "old-password", true)

	if _, err := env.engine.ForgotPassword(ctx, ForgotPasswordInput{
		Email:     acct.Email,
		ClientURI: "https://app.example.com/reset",
	}); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	proof := proofFromCallback(t, env.mailer.lastMail(t).Callback)

	if _, err := env.engine.ResetPassword(ctx, ResetPasswordInput{
		Email:       acct.Email,
		ResetProof:  proof,
		NewPassword: "new-password",
	}); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := env.engine.Login(ctx, LoginInput{Email: acct.Email, Password: "old-password"}); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("Login with retired password error = %v, want ErrAuthentication", err)
	}
	if _, err := env.engine.Login(ctx, LoginInput{Email: acct.Email, Password: "new-password"}); err != nil {
		t.Fatalf("Login with new password failed: %v", err)
	}

	if got := env.metricValue(MetricPasswordResetRequest); got != 1 {
		t.Fatalf("reset request counter = %d, want 1", got)
	}
	if got := env.metricValue(MetricPasswordResetSuccess); got != 1 {
		t.Fatalf("reset success counter = %d, want 1", got)
	}
}

func TestResetPasswordClearsLockout(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	acct := env.seedAccount(t, "alice@example.com", "old-password", true)

	end := time.Now().Add(time.Hour)
	if err := env.dir.SaveLockout(ctx, acct.ID, 0, &end); err != nil {
		t.Fatalf("SaveLockout failed: %v", err)
	}

	if _, err := env.engine.ForgotPassword(ctx, ForgotPasswordInput{
		Email:     acct.Email,
		ClientURI: "https://app.example.com/reset",
	}); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	proof := proofFromCallback(t, env.mailer.lastMail(t).Callback)

	if _, err := env.engine.ResetPassword(ctx, ResetPasswordInput{
		Email:       acct.Email,
		ResetProof:  proof,
		NewPassword: "new-password",
	}); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	// Without the clear this login would still hit the lockout window.
	if _, err := env.engine.Login(ctx, LoginInput{Email: acct.Email, Password: "new-password"}); err != nil {
		t.Fatalf("Login after reset failed: %v", err)
	}
}

func TestForgotPasswordUnconfirmedEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	acct := env.seedAccount(t, "alice@example.com", "pw", false)

	if _, err := env.engine.ForgotPassword(ctx, ForgotPasswordInput{
		Email:     acct.Email,
		ClientURI: "https://app.example.com/reset",
	}); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("ForgotPassword error = %v, want ErrAuthentication", err)
	}
	if got := env.mailer.count(); got != 0 {
		t.Fatalf("unconfirmed account received %d mails", got)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.engine.ForgotPassword(context.Background(), ForgotPasswordInput{
		Email:     "nobody@example.com",
		ClientURI: "https://app.example.com/reset",
	})
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("ForgotPassword error = %v, want ErrAuthentication", err)
	}
	if got := env.mailer.count(); got != 0 {
		t.Fatalf("unknown email received %d mails", got)
	}
}

func TestResetProofSingleUse(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	acct := env.seedAccount(t, "alice@example.com", "old-password", true)

	if _, err := env.engine.ForgotPassword(ctx, ForgotPasswordInput{
		Email:     acct.Email,
		ClientURI: "https://app.example.com/reset",
	}); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	proof := proofFromCallback(t, env.mailer.lastMail(t).Callback)

	input := ResetPasswordInput{Email: acct.Email, ResetProof: proof, NewPassword: "new-password"}
	if _, err := env.engine.ResetPassword(ctx, input); err != nil {
		t.Fatalf("first ResetPassword failed: %v", err)
	}
	if _, err := env.engine.ResetPassword(ctx, input); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("second ResetPassword error = %v, want ErrAuthentication", err)
	}
	if got := env.metricValue(MetricPasswordResetFailure); got != 1 {
		t.Fatalf("reset failure counter = %d, want 1", got)
	}
}

func TestResetPasswordWrongProof(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	acct := env.seedAccount(t, "alice@example.com", "old-password", true)

	if _, err := env.engine.ResetPassword(ctx, ResetPasswordInput{
		Email:       acct.Email,
		ResetProof:  "guessed",
		NewPassword: "new-password",
	}); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("ResetPassword error = %v, want ErrAuthentication", err)
	}

	// The account keeps its password.
	if _, err := env.engine.Login(ctx, LoginInput{Email: acct.Email, Password: "old-password"}); err != nil {
		t.Fatalf("Login failed after rejected reset: %v", err)
	}
}

func TestResetProofPurposeBound(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.engine.Register(ctx, RegisterInput{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "pw",
		ClientURI: "https://app.example.com/confirm",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	confirmProof := proofFromCallback(t, env.mailer.lastMail(t).Callback)

	// A confirmation proof must not unlock a password reset.
	if _, err := env.engine.ResetPassword(ctx, ResetPasswordInput{
		Email:       "carol@example.com",
		ResetProof:  confirmProof,
		NewPassword: "new-password",
	}); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("cross-purpose ResetPassword error = %v, want ErrAuthentication", err)
	}
}

func TestForgotPasswordValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	cases := []ForgotPasswordInput{
		{Email: "not an email", ClientURI: "https://app.example.com"},
		{Email: "alice@example.com", ClientURI: "javascript:alert(1)"},
		{Email: "alice@example.com", ClientURI: ""},
	}
	for _, input := range cases {
		if _, err := env.engine.ForgotPassword(ctx, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("ForgotPassword(%+v) error = %v, want ErrValidation", input, err)
		}
	}
}
