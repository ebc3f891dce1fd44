// Package store provides file-based persistence for Ciphera's core data.
//
// It contains concrete implementations of the domain storage interfaces,
// serializing data as JSON on disk, written atomically via a temp-file-then-
// rename so a crash mid-write never leaves a torn file. All methods are
// concurrency-safe via internal locking. Stored files live under the user's
// configured home directory.
//
// Two passphrase-derived key-encryption keys protect material at rest:
// Argon2id for the long-term identity file, and scrypt for the prekey
// store's private key material, matching how often each is unlocked (see
// DESIGN.md for the full justification).
//
// The package includes stores for:
//   - Identity keys (IdentityFileStore)
//   - Signed and one-time prekeys (PreKeyFileStore)
//   - Cached prekey bundles (BundleFileStore)
//   - Relay account profiles (AccountFileStore)
//   - Double Ratchet conversation state (RatchetFileStore)
package store
