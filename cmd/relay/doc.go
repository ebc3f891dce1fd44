// Package main runs the in-memory HTTP relay used by Ciphera during development
// and tests. It stores published prekey bundles and queues encrypted envelopes
// for recipients until they fetch them.
//
// HTTP API
//
//	POST /register
//	    Store a user's PrekeyBundle (identity key, signed prekey + sig, optional one-time prekey).
//
//	GET /prekey/{username}
//	    Return the latest published PrekeyBundle for {username}.
//
//	GET /account/{user}/canary
//	    Return the canary value from {user}'s most recently published bundle,
//	    so a sender can detect a server-side identity reset before trusting
//	    the relay with a send.
//
//	POST /msg/{user}
//	    Enqueue an Envelope destined to {user}. The body is the canonical
//	    wire encoding from internal/envelope (not JSON); the recipient comes
//	    from the URL, not the body. If the encoded timestamp is zero, the
//	    server fills it with the current time; a timestamp too far in the
//	    future is rejected.
//
//	GET /msg/{user}?limit=N
//	    Return up to N queued envelopes for {user} as a JSON array of
//	    wire-encoded frames. If limit is absent or greater than the queue
//	    length, all queued envelopes are returned.
//
//	POST /msg/{user}/ack { "count": N }
//	    Drop the first N queued envelopes for {user}. If N exceeds the queue
//	    length, the queue is cleared.
//
//	GET /healthz
//	    Liveness probe; always returns 204.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Responses are JSON. Non-2xx statuses carry a short error message.
//   - A lightweight access log records method, path, remote, status, bytes and
//     duration for each request.
//   - The default listen address is :8080.
//
// AS of now, this relay is intended for local use or as an untrusted middleman
// on a private network. It never sees plaintext or private keys; it only stores
// ciphertext and public bundles.
package main
