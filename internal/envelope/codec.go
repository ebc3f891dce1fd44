package envelope

import (
	"encoding/binary"
	"fmt"
	"math"

	"ciphera/internal/domain"
)

// currentVersion is the only version Marshal produces and Unmarshal accepts.
const currentVersion = 1

// EncodeHeader is the canonical serialization of a ratchet header: the
// sender's current DH public key, its previous chain length, and its
// counter in the current chain, in that fixed order. This is exactly the
// byte string bound into the message's AEAD tag as associated data.
func EncodeHeader(header domain.Header) []byte {
	buf := make([]byte, 0, 40)
	buf = append(buf, header.DHPub[:]...)
	buf = appendUint32(buf, header.PreviousChainLength)
	buf = appendUint32(buf, header.Counter)
	return buf
}

// Marshal serializes env as:
//
//	version:u8 | sender:len-prefixed | header(dh_pub:32, prev_chain_len:u32, n:u32)
//	| ciphertext:len-prefixed | bundle_present:u8 | [prekey message] | timestamp:u64
//
// All length prefixes are u32 big-endian byte counts. Marshal never fails on
// a well-formed Envelope; the error return exists for oversized fields.
func Marshal(env domain.Envelope) ([]byte, error) {
	sender := []byte(env.Sender)
	if len(sender) > math.MaxUint32 {
		return nil, fmt.Errorf("envelope: sender id too large")
	}
	if len(env.Ciphertext) > math.MaxUint32 {
		return nil, fmt.Errorf("envelope: ciphertext too large")
	}

	buf := make([]byte, 0, 64+len(sender)+len(env.Ciphertext))
	buf = append(buf, currentVersion)
	buf = appendBytes(buf, sender)
	buf = append(buf, EncodeHeader(env.Header)...)
	buf = appendBytes(buf, env.Ciphertext)

	if env.PreKeyMessage == nil {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		buf = appendPreKeyMessage(buf, *env.PreKeyMessage)
	}

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(env.TimestampUnixMilli))
	buf = append(buf, ts[:]...)

	return buf, nil
}

// Unmarshal parses bytes produced by Marshal. A version byte other than 1
// yields domain.ErrUnsupportedVersion without looking at the rest of the
// buffer. Unmarshal does not populate Envelope.Recipient: the wire format
// carries only the sender, since the recipient is the addressee the
// transport already routed by.
func Unmarshal(b []byte) (domain.Envelope, error) {
	var env domain.Envelope

	r := reader{buf: b}
	version, err := r.byte()
	if err != nil {
		return env, fmt.Errorf("envelope: read version: %w", err)
	}
	if version != currentVersion {
		return env, fmt.Errorf("envelope: version %d: %w", version, domain.ErrUnsupportedVersion)
	}
	env.Version = version

	sender, err := r.bytes()
	if err != nil {
		return env, fmt.Errorf("envelope: read sender: %w", err)
	}
	env.Sender = domain.Username(sender)

	dhPub, err := r.fixed(32)
	if err != nil {
		return env, fmt.Errorf("envelope: read dh_pub: %w", err)
	}
	copy(env.Header.DHPub[:], dhPub)

	prevLen, err := r.uint32()
	if err != nil {
		return env, fmt.Errorf("envelope: read prev_chain_len: %w", err)
	}
	env.Header.PreviousChainLength = prevLen

	counter, err := r.uint32()
	if err != nil {
		return env, fmt.Errorf("envelope: read counter: %w", err)
	}
	env.Header.Counter = counter

	ciphertext, err := r.bytes()
	if err != nil {
		return env, fmt.Errorf("envelope: read ciphertext: %w", err)
	}
	env.Ciphertext = ciphertext

	bundlePresent, err := r.byte()
	if err != nil {
		return env, fmt.Errorf("envelope: read bundle_present: %w", err)
	}
	if bundlePresent != 0 {
		pm, err := r.preKeyMessage()
		if err != nil {
			return env, fmt.Errorf("envelope: read prekey message: %w", err)
		}
		env.PreKeyMessage = &pm
	}

	timestamp, err := r.uint64()
	if err != nil {
		return env, fmt.Errorf("envelope: read timestamp: %w", err)
	}
	env.TimestampUnixMilli = int64(timestamp)

	if !r.exhausted() {
		return env, fmt.Errorf("envelope: trailing bytes after timestamp")
	}

	return env, nil
}

func appendPreKeyMessage(buf []byte, pm domain.PreKeyMessage) []byte {
	buf = append(buf, pm.InitiatorIdentityKey[:]...)
	buf = append(buf, pm.EphemeralKey[:]...)
	buf = appendBytes(buf, []byte(pm.SignedPreKeyID))
	buf = appendBytes(buf, []byte(pm.OneTimePreKeyID))
	return buf
}

func (r *reader) preKeyMessage() (domain.PreKeyMessage, error) {
	var pm domain.PreKeyMessage

	identityKey, err := r.fixed(32)
	if err != nil {
		return pm, err
	}
	copy(pm.InitiatorIdentityKey[:], identityKey)

	ephemeralKey, err := r.fixed(32)
	if err != nil {
		return pm, err
	}
	copy(pm.EphemeralKey[:], ephemeralKey)

	spkID, err := r.bytes()
	if err != nil {
		return pm, err
	}
	pm.SignedPreKeyID = domain.SignedPreKeyID(spkID)

	opkID, err := r.bytes()
	if err != nil {
		return pm, err
	}
	pm.OneTimePreKeyID = domain.OneTimePreKeyID(opkID)

	return pm, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendBytes(buf, v []byte) []byte {
	buf = appendUint32(buf, uint32(len(v)))
	return append(buf, v...)
}

// reader walks buf forward, consuming the canonical encoding primitives.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) exhausted() bool { return r.pos == len(r.buf) }

func (r *reader) byte() (byte, error) {
	if r.pos+1 > len(r.buf) {
		return 0, fmt.Errorf("unexpected end of buffer")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) fixed(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("unexpected end of buffer")
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.fixed(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.fixed(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) bytes() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	return r.fixed(int(n))
}
