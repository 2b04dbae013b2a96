// Package authcore implements the session and credential-token lifecycle of an
// account-authentication backend: credential checks with account lockout, JWT
// access tokens, rotating single-use opaque refresh tokens with a per-account
// device cap, and single-use proof tokens for email confirmation and password
// reset.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// and value types. The user directory (account records, password hashes,
// proof-token primitives) and outbound mail are external collaborators behind
// the [Directory] and [Mailer] interfaces; the engine consults them but never
// re-implements them. Refresh-token state lives in Redis behind the refresh
// sub-package and is mutated only through atomic scripts, so two concurrent
// presentations of the same refresh token can never both succeed.
//
// # Failure policy
//
// Malformed input fails with [ErrValidation] before any directory or store
// access. Every credential or token failure — unknown account, wrong password,
// locked account, unconfirmed email, expired or replayed refresh token —
// surfaces as the same [ErrAuthentication] so account existence is never
// leaked. The specific reason is recorded on the audit stream only.
package authcore
