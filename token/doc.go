// Package token mints and verifies the engine's two token kinds: signed
// short-lived access tokens and opaque refresh-token values drawn from the
// system CSPRNG.
package token
