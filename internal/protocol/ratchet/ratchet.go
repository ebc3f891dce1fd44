package ratchet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
)

const (
	// maxSkippedKeys bounds the skipped-key cache; beyond this many
	// out-of-order messages in a single chain we give up rather than let an
	// adversary force unbounded memory growth.
	maxSkippedKeys = 1000

	// skippedKeyMaxAge bounds how long a cached skipped key is kept before
	// opportunistic pruning discards it.
	skippedKeyMaxAge = 30 * 24 * time.Hour
)

const (
	ckTagChain      = 0x01
	ckTagMessageKey = 0x02
)

// InitAsInitiator seeds a ratchet for the side that ran X3DH as initiator.
// selfPriv/selfPub is the caller's current DH ratchet key pair (the X3DH
// ephemeral key pair), and peerDHPub is the responder's signed prekey; the
// first DH ratchet step mixes it into the X3DH root to produce the first
// sending chain.
func InitAsInitiator(
	rootKey [32]byte,
	selfPriv domain.X25519Private,
	selfPub domain.X25519Public,
	peerDHPub domain.X25519Public,
) (domain.RatchetState, error) {
	dh, err := crypto.DH(selfPriv, peerDHPub)
	if err != nil {
		return domain.RatchetState{}, fmt.Errorf("ratchet: init dh: %w", err)
	}
	newRoot, sendCK := kdfRK(rootKey, dh)
	crypto.Wipe(dh[:])

	return domain.RatchetState{
		DHSelfPriv:   selfPriv,
		DHSelfPub:    selfPub,
		DHRemote:     &peerDHPub,
		RootKey:      newRoot,
		ChainKeySend: &sendCK,
		Initiator:    true,
	}, nil
}

// InitAsResponder seeds a ratchet for the side that ran X3DH as responder.
// selfPriv/selfPub is the signed prekey pair the initiator used in X3DH, and
// peerDHPub is the initiator's ephemeral key from its PreKeyMessage.
func InitAsResponder(
	rootKey [32]byte,
	selfPriv domain.X25519Private,
	selfPub domain.X25519Public,
	peerDHPub domain.X25519Public,
) (domain.RatchetState, error) {
	dh, err := crypto.DH(selfPriv, peerDHPub)
	if err != nil {
		return domain.RatchetState{}, fmt.Errorf("ratchet: init dh: %w", err)
	}
	newRoot, recvCK := kdfRK(rootKey, dh)
	crypto.Wipe(dh[:])

	return domain.RatchetState{
		DHSelfPriv:   selfPriv,
		DHSelfPub:    selfPub,
		DHRemote:     &peerDHPub,
		RootKey:      newRoot,
		ChainKeyRecv: &recvCK,
		Initiator:    false,
	}, nil
}

// Encrypt encrypts plaintext under the current sending chain, performing a
// lazy DH ratchet step first if this is the first message sent since the
// last time the peer's DH key changed (ChainKeySend starts nil on the
// responder side until it has something to reply with).
func Encrypt(st *domain.RatchetState, associatedData, plaintext []byte) (domain.Header, []byte, error) {
	if st == nil {
		return domain.Header{}, nil, fmt.Errorf("ratchet: nil state: %w", domain.ErrSessionNotFound)
	}

	if st.ChainKeySend == nil {
		if err := dhRatchetSend(st); err != nil {
			return domain.Header{}, nil, err
		}
	}

	mk, err := advanceChain(st.ChainKeySend)
	if err != nil {
		return domain.Header{}, nil, err
	}

	header := domain.Header{
		DHPub:               st.DHSelfPub,
		PreviousChainLength: st.PreviousChainLength,
		Counter:             st.SendCounter,
	}

	ct, err := crypto.Seal(mk, aeadAssociatedData(header, associatedData), plaintext)
	crypto.Wipe(mk[:])
	if err != nil {
		return domain.Header{}, nil, err
	}

	st.SendCounter++
	return header, ct, nil
}

// dhRatchetSend generates a fresh DH ratchet key pair and derives a new
// sending chain from the current root and the peer's last known DH public
// key, without touching the receiving chain.
func dhRatchetSend(st *domain.RatchetState) error {
	if st.DHRemote == nil {
		return fmt.Errorf("ratchet: no peer dh key yet: %w", domain.ErrSessionNotFound)
	}
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return fmt.Errorf("ratchet: ratchet key: %w", err)
	}
	dh, err := crypto.DH(priv, *st.DHRemote)
	if err != nil {
		return fmt.Errorf("ratchet: send dh: %w", err)
	}
	newRoot, sendCK := kdfRK(st.RootKey, dh)
	crypto.Wipe(dh[:])

	st.RootKey = newRoot
	st.DHSelfPriv = priv
	st.DHSelfPub = pub
	st.ChainKeySend = &sendCK
	return nil
}

// Decrypt decrypts ciphertext, performing a DH ratchet step and/or deriving
// skipped message keys as needed. On any failure the receiving state is left
// exactly as it was before the call, except that a skipped-key cache entry
// consumed during lookup is never replayed back in (see the package doc).
func Decrypt(st *domain.RatchetState, associatedData []byte, header domain.Header, ciphertext []byte) ([]byte, error) {
	if st == nil {
		return nil, fmt.Errorf("ratchet: nil state: %w", domain.ErrSessionNotFound)
	}

	if pt, found, err := tryDecryptSkipped(st, associatedData, header, ciphertext); found {
		if err == nil {
			pruneExpiredSkipped(st)
		}
		return pt, err
	}

	sameChain := st.DHRemote != nil && *st.DHRemote == header.DHPub
	if sameChain && header.Counter < st.RecvCounter {
		return nil, fmt.Errorf("ratchet: counter %d already processed: %w", header.Counter, domain.ErrReplay)
	}

	scratch := *st
	scratch.SkippedKeys = append([]domain.SkippedKey(nil), st.SkippedKeys...)
	if st.ChainKeyRecv != nil {
		recvCK := *st.ChainKeyRecv
		scratch.ChainKeyRecv = &recvCK
	}

	if !sameChain {
		if err := dhRatchetRecv(&scratch, header); err != nil {
			return nil, err
		}
	}

	if err := skipKeysUpTo(&scratch, header.Counter); err != nil {
		return nil, err
	}

	mk, err := advanceChain(scratch.ChainKeyRecv)
	if err != nil {
		return nil, err
	}
	scratch.RecvCounter = header.Counter + 1

	pt, err := crypto.Open(mk, aeadAssociatedData(header, associatedData), ciphertext)
	crypto.Wipe(mk[:])
	if err != nil {
		return nil, err
	}

	pruneExpiredSkipped(&scratch)
	*st = scratch
	return pt, nil
}

// dhRatchetRecv performs a full DH ratchet step on receipt of a message
// under a new peer DH public key: it finishes the old receiving chain (by
// skipping the caller's remaining messages into the cache), then derives a
// fresh receiving chain and, lazily, the next sending chain.
func dhRatchetRecv(scratch *domain.RatchetState, header domain.Header) error {
	if scratch.ChainKeyRecv != nil {
		if err := skipKeysUpTo(scratch, header.PreviousChainLength); err != nil {
			return err
		}
	}

	scratch.PreviousChainLength = scratch.SendCounter
	scratch.SendCounter = 0
	scratch.RecvCounter = 0
	scratch.DHRemote = &header.DHPub

	dh1, err := crypto.DH(scratch.DHSelfPriv, header.DHPub)
	if err != nil {
		return fmt.Errorf("ratchet: recv dh: %w", err)
	}
	newRoot, recvCK := kdfRK(scratch.RootKey, dh1)
	crypto.Wipe(dh1[:])
	scratch.RootKey = newRoot
	scratch.ChainKeyRecv = &recvCK

	scratch.ChainKeySend = nil // re-derived lazily by the next Encrypt call
	return nil
}

// skipKeysUpTo derives and caches message keys for every counter value from
// the chain's current receive counter up to (excluding) target, bounding the
// number of keys skipped at once.
func skipKeysUpTo(scratch *domain.RatchetState, target uint32) error {
	if scratch.ChainKeyRecv == nil {
		return nil
	}
	if target < scratch.RecvCounter {
		return nil
	}
	if target-scratch.RecvCounter > maxSkippedKeys {
		return fmt.Errorf("ratchet: %d messages skipped: %w", target-scratch.RecvCounter, domain.ErrTooManySkipped)
	}

	for scratch.RecvCounter < target {
		mk, err := advanceChain(scratch.ChainKeyRecv)
		if err != nil {
			return err
		}
		if len(scratch.SkippedKeys) >= maxSkippedKeys {
			scratch.SkippedKeys = scratch.SkippedKeys[1:] // evict oldest (FIFO)
		}
		scratch.SkippedKeys = append(scratch.SkippedKeys, domain.SkippedKey{
			DHPub:      *scratch.DHRemote,
			Counter:    scratch.RecvCounter,
			MessageKey: mk,
			StoredUnix: nowUnix(),
		})
		scratch.RecvCounter++
	}
	return nil
}

// tryDecryptSkipped looks for a cached key matching header and, if found,
// consumes it (removing it from the cache regardless of outcome) and
// attempts to open ciphertext with it.
func tryDecryptSkipped(st *domain.RatchetState, associatedData []byte, header domain.Header, ciphertext []byte) (plaintext []byte, found bool, err error) {
	for i, sk := range st.SkippedKeys {
		if sk.DHPub != header.DHPub || sk.Counter != header.Counter {
			continue
		}
		st.SkippedKeys = append(st.SkippedKeys[:i], st.SkippedKeys[i+1:]...)
		pt, openErr := crypto.Open(sk.MessageKey, aeadAssociatedData(header, associatedData), ciphertext)
		crypto.Wipe(sk.MessageKey[:])
		return pt, true, openErr
	}
	return nil, false, nil
}

// pruneExpiredSkipped removes cached skipped keys older than
// skippedKeyMaxAge, run opportunistically after every successful decrypt.
func pruneExpiredSkipped(scratch *domain.RatchetState) {
	cutoff := nowUnix() - int64(skippedKeyMaxAge/time.Second)
	kept := scratch.SkippedKeys[:0]
	for _, sk := range scratch.SkippedKeys {
		if sk.StoredUnix >= cutoff {
			kept = append(kept, sk)
		}
	}
	scratch.SkippedKeys = kept
}

// kdfRK derives a new root key and chain key from the DH output, per KDF_RK.
func kdfRK(root [32]byte, dh [32]byte) (newRoot [32]byte, chainKey [32]byte) {
	okm, err := crypto.HKDF(root[:], dh[:], []byte("ciphera-ratchet-rk"), 64)
	if err != nil {
		// HKDF over fixed-size, non-empty input only fails if the output
		// length exceeds HKDF's limit, which 64 bytes never does.
		panic(err)
	}
	copy(newRoot[:], okm[:32])
	copy(chainKey[:], okm[32:])
	return newRoot, chainKey
}

// advanceChain derives the next chain key and this step's message key from
// HMAC-SHA256 with single-byte domain tags (KDF_CK), replacing *chainKey
// with the next chain key in place.
func advanceChain(chainKey *[32]byte) (messageKey [32]byte, err error) {
	if chainKey == nil {
		return messageKey, fmt.Errorf("ratchet: chain key not initialised: %w", domain.ErrSessionNotFound)
	}
	nextCK := hmacTag(*chainKey, ckTagChain)
	mk := hmacTag(*chainKey, ckTagMessageKey)
	*chainKey = nextCK
	return mk, nil
}

func hmacTag(key [32]byte, tag byte) [32]byte {
	h := hmac.New(sha256.New, key[:])
	h.Write([]byte{tag})
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// aeadAssociatedData binds the canonical header serialization and any
// caller-supplied associated data into the AEAD tag.
func aeadAssociatedData(header domain.Header, associatedData []byte) []byte {
	out := make([]byte, 0, 40+len(associatedData))
	out = append(out, header.DHPub[:]...)
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], header.PreviousChainLength)
	out = append(out, tmp[:]...)
	binary.BigEndian.PutUint32(tmp[:], header.Counter)
	out = append(out, tmp[:]...)
	return append(out, associatedData...)
}

func nowUnix() int64 { return timeNow().Unix() }

// timeNow is a variable indirection so tests can simulate the passage of
// time for skipped-key eviction without sleeping.
var timeNow = time.Now
