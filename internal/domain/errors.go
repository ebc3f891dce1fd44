package domain

import "errors"

// Sentinel errors shared by every layer above internal/domain. Layers add
// context with fmt.Errorf("...: %w", err) rather than declaring new error
// types, so callers can always compare against these with errors.Is.
var (
	// ErrAuthFail means an AEAD tag failed to verify: tampering, a wrong
	// key, or a corrupted ciphertext.
	ErrAuthFail = errors.New("domain: authentication failed")

	// ErrBadBundle means a prekey bundle failed signature verification or
	// is structurally invalid.
	ErrBadBundle = errors.New("domain: invalid prekey bundle")

	// ErrBundleExpired means a signed prekey's age exceeds its validity
	// window.
	ErrBundleExpired = errors.New("domain: prekey bundle expired")

	// ErrReplay means a message counter at or below an already-processed
	// value was seen again.
	ErrReplay = errors.New("domain: replayed message")

	// ErrTooManySkipped means a header's counter would require skipping
	// more messages than the bounded cache allows.
	ErrTooManySkipped = errors.New("domain: too many skipped messages")

	// ErrSessionNotFound means no conversation exists yet for a peer.
	ErrSessionNotFound = errors.New("domain: session not found")

	// ErrStoreIO means a persistence operation failed for reasons unrelated
	// to authentication (disk full, permission denied, corrupt file).
	ErrStoreIO = errors.New("domain: store i/o error")

	// ErrStoreAuthFail means the passphrase-derived key failed to open an
	// encrypted store file.
	ErrStoreAuthFail = errors.New("domain: store authentication failed")

	// ErrUnsupportedVersion means an envelope declares a protocol version
	// this build does not understand.
	ErrUnsupportedVersion = errors.New("domain: unsupported envelope version")

	// ErrEntropyFail means the system CSPRNG could not be read.
	ErrEntropyFail = errors.New("domain: entropy source failed")

	// ErrBadKey means a key supplied to a primitive has the wrong length or
	// an otherwise invalid encoding.
	ErrBadKey = errors.New("domain: invalid key")
)
