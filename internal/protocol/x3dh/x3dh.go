package x3dh

import (
	"fmt"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
)

// domainSeparator is prefixed to the DH transcript before HKDF, per the
// standard X3DH construction (a 32-byte run of 0xFF that cannot occur as a
// valid Curve25519 DH output).
var domainSeparator = func() [32]byte {
	var b [32]byte
	for i := range b {
		b[i] = 0xFF
	}
	return b
}()

const hkdfInfo = "ciphera-x3dh"

// InitiatorRoot derives the root key for the initiating side of a new
// conversation, generating a fresh ephemeral key pair in the process. It
// returns that ephemeral pair and the ids of the signed/one-time prekeys
// consumed from the bundle, so the caller can both populate a PreKeyMessage
// for the peer and seed the Double Ratchet with the ephemeral private key.
func InitiatorRoot(
	identity domain.Identity,
	bundle domain.PreKeyBundle,
) (rootKey [32]byte, spkID domain.SignedPreKeyID, opkID domain.OneTimePreKeyID, ephPriv domain.X25519Private, ephPub domain.X25519Public, err error) {
	if err = VerifyBundle(bundle); err != nil {
		return rootKey, spkID, opkID, ephPriv, ephPub, err
	}

	ephPriv, ephPub, err = crypto.GenerateX25519()
	if err != nil {
		return rootKey, spkID, opkID, ephPriv, ephPub, fmt.Errorf("x3dh: ephemeral key: %w", err)
	}

	dh1, err := crypto.DH(identity.XPriv, bundle.SignedPreKey.Pub)
	if err != nil {
		return rootKey, spkID, opkID, ephPriv, ephPub, fmt.Errorf("x3dh: dh1: %w", err)
	}
	dh2, err := crypto.DH(ephPriv, bundle.IdentityKey)
	if err != nil {
		return rootKey, spkID, opkID, ephPriv, ephPub, fmt.Errorf("x3dh: dh2: %w", err)
	}
	dh3, err := crypto.DH(ephPriv, bundle.SignedPreKey.Pub)
	if err != nil {
		return rootKey, spkID, opkID, ephPriv, ephPub, fmt.Errorf("x3dh: dh3: %w", err)
	}

	transcript := make([]byte, 0, 32*5)
	transcript = append(transcript, domainSeparator[:]...)
	transcript = append(transcript, dh1[:]...)
	transcript = append(transcript, dh2[:]...)
	transcript = append(transcript, dh3[:]...)

	if bundle.OneTimePreKey != nil {
		dh4, err2 := crypto.DH(ephPriv, bundle.OneTimePreKey.Pub)
		if err2 != nil {
			return rootKey, spkID, opkID, ephPriv, ephPub, fmt.Errorf("x3dh: dh4: %w", err2)
		}
		transcript = append(transcript, dh4[:]...)
		opkID = bundle.OneTimePreKey.ID
		crypto.Wipe(dh4[:])
	}

	okm, err := crypto.HKDF(nil, transcript, []byte(hkdfInfo), 32)
	crypto.Wipe(dh1[:])
	crypto.Wipe(dh2[:])
	crypto.Wipe(dh3[:])
	crypto.Wipe(transcript)
	if err != nil {
		return rootKey, spkID, opkID, ephPriv, ephPub, fmt.Errorf("x3dh: hkdf: %w", err)
	}
	copy(rootKey[:], okm)

	return rootKey, bundle.SignedPreKey.ID, opkID, ephPriv, ephPub, nil
}

// ResponderRoot derives the same root key from the responder's side, given
// the private halves of the signed prekey (always) and one-time prekey (if
// the initiator's PreKeyMessage names one).
func ResponderRoot(
	identity domain.Identity,
	spkPriv domain.X25519Private,
	otpPriv *domain.X25519Private,
	pm domain.PreKeyMessage,
) (rootKey [32]byte, err error) {
	dh1, err := crypto.DH(spkPriv, pm.InitiatorIdentityKey)
	if err != nil {
		return rootKey, fmt.Errorf("x3dh: dh1: %w", err)
	}
	dh2, err := crypto.DH(identity.XPriv, pm.EphemeralKey)
	if err != nil {
		return rootKey, fmt.Errorf("x3dh: dh2: %w", err)
	}
	dh3, err := crypto.DH(spkPriv, pm.EphemeralKey)
	if err != nil {
		return rootKey, fmt.Errorf("x3dh: dh3: %w", err)
	}

	transcript := make([]byte, 0, 32*5)
	transcript = append(transcript, domainSeparator[:]...)
	transcript = append(transcript, dh1[:]...)
	transcript = append(transcript, dh2[:]...)
	transcript = append(transcript, dh3[:]...)

	if pm.OneTimePreKeyID != "" {
		if otpPriv == nil {
			return rootKey, fmt.Errorf("x3dh: message names a one-time prekey we don't have: %w", domain.ErrBadBundle)
		}
		dh4, err2 := crypto.DH(*otpPriv, pm.EphemeralKey)
		if err2 != nil {
			return rootKey, fmt.Errorf("x3dh: dh4: %w", err2)
		}
		transcript = append(transcript, dh4[:]...)
		crypto.Wipe(dh4[:])
	}

	okm, err := crypto.HKDF(nil, transcript, []byte(hkdfInfo), 32)
	crypto.Wipe(dh1[:])
	crypto.Wipe(dh2[:])
	crypto.Wipe(dh3[:])
	crypto.Wipe(transcript)
	if err != nil {
		return rootKey, fmt.Errorf("x3dh: hkdf: %w", err)
	}
	copy(rootKey[:], okm)

	return rootKey, nil
}
