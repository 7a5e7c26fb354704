// Package secretbox encrypts small secrets at rest with AES-256-CBC.
//
// # Output format
//
// Ciphertexts are encoded as hex(iv) + ":" + hex(ciphertext) with a fresh
// random 16-byte IV per call and PKCS#7 padding. The key is derived as
// SHA-256 of the configured passphrase. This wire format is kept for
// compatibility with secrets already stored in it; deployments without
// stored ciphertexts should prefer an AEAD construction, which this format
// is not (CBC provides no integrity).
//
// # What this package must NOT do
//
//   - Store or retrieve ciphertexts — callers own persistence.
//   - Import any other authcore package.
package secretbox
