package authcore

import "errors"

var (
	// ErrValidation is returned when an input record is malformed. Validation
	// failures short-circuit before any directory or store access.
	ErrValidation = errors.New("validation error")
	// ErrAuthentication is the uniform rejection for every credential or token
	// failure. Callers must not be able to distinguish a missing account from
	// a wrong password, a locked account, an unconfirmed email, or a stale
	// refresh token; the underlying reason is only emitted on the audit stream.
	ErrAuthentication = errors.New("authentication error")
	// ErrUnauthorized is returned by [Engine.ValidateAccess] for access tokens
	// that fail cryptographic or claim validation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEngineNotReady is returned when an Engine method is called on an
	// engine that was not constructed through [Builder.Build].
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrAccountNotFound is the sentinel a [Directory] implementation returns
	// for lookups that match no account. The engine collapses it into
	// [ErrAuthentication] before it reaches a caller.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateEmail is the sentinel a [Directory] returns when Create is
	// called with an email that is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Internal failure reasons. These never escape the engine; they name the
// audit metadata attached to the uniform external rejection.
const (
	reasonInvalidInput     = "invalid_input"
	reasonAccountMissing   = "account_missing"
	reasonLockedOut        = "locked_out"
	reasonPasswordMismatch = "password_mismatch"
	reasonEmailUnconfirmed = "email_unconfirmed"
	reasonTokenUnknown     = "token_unknown"
	reasonTokenExpired     = "token_expired"
	reasonTokenReplayed    = "token_replayed"
	reasonProofInvalid     = "proof_invalid"
	reasonDuplicateEmail   = "duplicate_email"
)
