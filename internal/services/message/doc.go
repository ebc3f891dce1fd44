// Package message sends and receives encrypted messages.
//
// It derives message keys from Double Ratchet state, updates per-message
// state, and exchanges ciphertexts via the RelayClient. Sending lazily
// bootstraps a conversation (via the session service) if none exists yet;
// receiving lazily bootstraps the responder side of a conversation from an
// inbound PreKeyMessage when one arrives.
package message
