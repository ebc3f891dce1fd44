// Package session establishes and tracks Double Ratchet conversations.
//
// It runs X3DH as the initiator against a peer's published prekey bundle,
// seeds the Double Ratchet state from the resulting root key, and persists
// the conversation for the message service to use and advance.
package session
