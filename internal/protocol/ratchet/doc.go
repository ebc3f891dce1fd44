// Package ratchet implements the Double Ratchet algorithm following Signal's
// design.
//
// The algorithm maintains a root key and two message chains (send and
// receive). Each message advances a KDF chain so that keys are forward
// secure. When a peer's DH ratchet public key changes, both sides derive a
// fresh root and chain keys from a new DH output.
//
// Decrypt applies state changes to a scratch copy and commits to the real
// state only once the AEAD tag has verified, so a rejected message never
// leaves the ratchet in a half-advanced state, with one exception: a
// message key already promoted to the skipped-key cache is removed from
// that cache as soon as it is looked up, even if the subsequent open fails,
// since a cached key must never be reused on a retry.
//
// Concurrency: RatchetState is NOT safe for concurrent use. Callers must
// serialize access per conversation.
package ratchet
