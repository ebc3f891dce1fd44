// Package envelope implements the canonical wire encoding exchanged between
// clients via the relay: version, sender id, ratchet header, ciphertext,
// an optional inline PreKeyMessage, and an informational timestamp.
//
// Marshal/Unmarshal are the only byte-oriented surface a transport needs;
// everything else (X3DH, the ratchet) stays in terms of Go structs. The
// encoding is canonical: the same Envelope value always marshals to the
// same bytes, which matters because the header bytes inside it double as
// the AEAD associated data checked during decryption.
package envelope
