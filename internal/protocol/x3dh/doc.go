// Package x3dh implements the X3DH key-agreement used to bootstrap a Double
// Ratchet session between two parties.
//
// # Overview
//
// X3DH lets an initiator derive a shared 32-byte root key with a responder
// who has published a prekey bundle. The bundle contains:
//   - Identity key (X25519)
//   - Signed prekey (X25519) and its Ed25519 signature
//   - An optional one-time prekey (X25519)
//
// # Flows
//
// Initiator (InitiatorRoot):
//  1. Verify the bundle's signed prekey signature and expiry.
//  2. Generate an ephemeral X25519 key pair.
//  3. Compute DH1..DH3 (or DH4 with a one-time prekey).
//  4. HKDF over a domain-separated transcript to produce the root key.
//  5. Return the root key, the SPK/OPK identifiers used, and the ephemeral
//     public key to send to the peer.
//
// Responder (ResponderRoot):
//  1. Receive the PreKeyMessage (initiator IK, ephemeral EK, SPK/OPK ids).
//  2. Look up the referenced SPK private key, and consume the OPK if named.
//  3. Compute the symmetric DH set.
//  4. HKDF the same transcript to the identical root key.
//
// # Domain separation
//
// The HKDF input key material is prefixed with 32 0xFF bytes before the DH
// outputs, per the standard X3DH construction: this distinguishes the
// handshake's derived key from any other use of HKDF over raw X25519
// output elsewhere in this module.
//
// # Errors
//
// domain.ErrBadBundle is returned when the SPK signature fails verification
// or the bundle is structurally invalid. domain.ErrBundleExpired is returned
// when the signed prekey has aged out. Other errors wrap lower-level crypto
// or storage failures.
package x3dh
