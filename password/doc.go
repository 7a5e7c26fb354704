// Package password implements password hashing and verification with bcrypt.
//
// # Output format
//
// Hashes use the modular crypt format produced by golang.org/x/crypto/bcrypt
// ($2a$<cost>$<salt+digest>), with the salt embedded in the encoded string.
// The cost factor is adaptive: raise it over time and re-hash on the next
// successful verification.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum
// length) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords at runtime.
package password
