// Package secrets provides the cryptographic core of condlock.
//
// # Encryption Architecture
//
// condlock uses a two-layer scheme:
//
//  1. A random 256-bit content key encrypts the note (layer 1)
//  2. A condition key, derived from the unlock condition and a random salt,
//     encrypts the content key (layer 2)
//  3. The decryptor recomputes the condition key from the envelope and opens
//     layer 2, then layer 1, but only after the condition has been confirmed
//
// Both layers use AES-256-GCM with random 16-byte IVs, so each layer is
// authenticated on its own. Encrypting the same note twice produces
// unrelated output.
//
// # Condition-Key Derivation
//
// The condition key is SHA-256 over a Tuple: a versioned domain tag followed
// by the asset, target price, min price, unlock time and base64 salt, always
// in that order. Absent fields are empty strings. Any difference in any field
// yields an unrelated key, and decryption then fails with the same generic
// error as any other corruption.
//
// # Digests
//
// HashHex and HashBytes are SHA-256 helpers accepting either strings or byte
// slices.
package secrets
