// Package refresh stores opaque refresh tokens in Redis with per-account
// capacity limits and atomic single-use rotation.
package refresh
