package authcore

import (
	"context"
	"time"
)

// Account is the slice of a user-directory record the engine needs to make
// authentication decisions. The directory owns the record; the engine reads
// it, applies the lockout policy to the failure-tracking fields, and writes
// those fields back through [Directory.SaveLockout]. It never deletes
// accounts.
type Account struct {
	ID             string
	Username       string
	Email          string
	EmailConfirmed bool

	// FailedAccessCount and LockoutEnd are the lockout policy's state.
	// LockoutEnd == nil means the account is not locked.
	FailedAccessCount int
	LockoutEnd        *time.Time
}

// ProofPurpose binds a proof token to exactly one account action.
type ProofPurpose uint8

const (
	// ProofConfirmEmail authorizes marking the account's email confirmed.
	ProofConfirmEmail ProofPurpose = iota
	// ProofResetPassword authorizes replacing the account's password.
	ProofResetPassword
)

// Directory is the user-directory collaborator the engine authenticates
// against. Implementations own account records, password hashing and
// verification, and the proof-token primitive (single-use, time-boxed,
// purpose-bound). Lookups that match nothing return [ErrAccountNotFound];
// Create returns [ErrDuplicateEmail] for an already-registered email.
//
// The proof primitive must guarantee a token is redeemable at most once and
// expires after its TTL; the engine layers issuance policy and the uniform
// error surface on top but treats construction and redemption as a black box.
type Directory interface {
	FindByEmail(ctx context.Context, normalizedEmail string) (*Account, error)
	FindByID(ctx context.Context, accountID string) (*Account, error)
	VerifyPassword(ctx context.Context, accountID, password string) (bool, error)
	GetRoles(ctx context.Context, accountID string) ([]string, error)
	SaveLockout(ctx context.Context, accountID string, failedCount int, lockoutEnd *time.Time) error
	SetEmailConfirmed(ctx context.Context, accountID string) error
	SetPassword(ctx context.Context, accountID, newPassword string) error
	GenerateProof(ctx context.Context, accountID string, purpose ProofPurpose, ttl time.Duration) (string, error)
	RedeemProof(ctx context.Context, accountID, proof string, purpose ProofPurpose) (bool, error)
	Create(ctx context.Context, input CreateAccountInput) (*Account, error)
}

// CreateAccountInput is the input for [Directory.Create]. Password hashing is
// the directory's concern; the engine hands the plaintext over exactly once.
type CreateAccountInput struct {
	Username string
	Email    string
	Password string
	Roles    []string
}

// Identity is the verified claim set returned by [Engine.ValidateAccess].
type Identity struct {
	AccountID string
	Username  string
	Email     string
	Roles     []string
}

// LoginInput carries the credentials for [Engine.Login].
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is returned by a successful [Engine.Login].
type LoginResult struct {
	AccessToken    string
	RefreshToken   string
	RefreshExpires time.Time
}

// RefreshInput carries the presented refresh token for [Engine.Refresh].
type RefreshInput struct {
	RefreshToken string
}

// RefreshResult is returned by a successful [Engine.Refresh]. Devices is the
// size of the account's refresh-token set before the presented token was
// removed, i.e. how many sessions were active including the one rotating.
type RefreshResult struct {
	Devices        int
	AccessToken    string
	RefreshToken   string
	RefreshExpires time.Time
}

// LogoutInput carries the refresh token to destroy.
type LogoutInput struct {
	RefreshToken string
}

// LogoutResult identifies the account whose session was destroyed.
type LogoutResult struct {
	AccountID string
}

// RegisterInput is the input for [Engine.Register]. ClientURI is the
// caller-supplied base URI the confirmation callback link is built on.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	ClientURI string
}

// RegisterResult is returned by a successful [Engine.Register].
type RegisterResult struct {
	AccountID string
}

// ForgotPasswordInput is the input for [Engine.ForgotPassword].
type ForgotPasswordInput struct {
	Email     string
	ClientURI string
}

// ForgotPasswordResult is returned when a reset proof was issued and mailed.
type ForgotPasswordResult struct {
	AccountID string
}

// ResetPasswordInput is the input for [Engine.ResetPassword].
type ResetPasswordInput struct {
	Email       string
	ResetProof  string
	NewPassword string
}

// ResetPasswordResult is returned by a successful [Engine.ResetPassword].
type ResetPasswordResult struct {
	AccountID string
}

// ConfirmEmailInput is the input for [Engine.ConfirmEmail].
type ConfirmEmailInput struct {
	Email             string
	ConfirmationProof string
}

// ConfirmEmailResult is returned by a successful [Engine.ConfirmEmail].
type ConfirmEmailResult struct {
	AccountID string
}
