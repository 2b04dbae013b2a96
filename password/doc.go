// Package password implements password hashing and verification with Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Parameter upgrades are transparent: stored hashes embed their own costs, so
// verification keeps working after a cost bump and [Argon2.NeedsUpgrade]
// reports which hashes are due for a rehash on next successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy beyond the
// minimum length lives with the caller, and storage of hashes belongs to the
// directory.
package password
