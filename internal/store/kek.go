package store

import (
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
)

const saltBytes = 16

// argon2KEK derives a 32-byte key-encryption key from a passphrase and salt
// using Argon2id, tuned for the long-term identity file: this is unlocked
// once per CLI invocation, so a higher time cost is affordable.
func argon2KEK(passphrase string, salt []byte) ([32]byte, error) {
	var kek [32]byte
	copy(kek[:], argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32))
	return kek, nil
}

// scryptKEK derives a 32-byte key-encryption key from a passphrase and salt
// using scrypt, used for the prekey and ratchet stores: these are unlocked
// far more often than the identity (the ratchet store on every send/receive),
// so scrypt's lower memory footprint keeps routine operations responsive.
func scryptKEK(passphrase string, salt []byte) ([32]byte, error) {
	var kek [32]byte
	out, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, 32)
	if err != nil {
		return kek, fmt.Errorf("store: scrypt: %w", domain.ErrStoreIO)
	}
	copy(kek[:], out)
	return kek, nil
}

// sealedBlob is the on-disk envelope for passphrase-encrypted JSON: the salt
// used to derive the KEK plus the AEAD ciphertext (which itself carries its
// own nonce, per crypto.Seal).
type sealedBlob struct {
	Salt       []byte `json:"salt"`
	Ciphertext []byte `json:"ciphertext"`
}

func sealWithPassphrase(deriveKEK func(passphrase string, salt []byte) ([32]byte, error), passphrase string, plaintext []byte) (sealedBlob, error) {
	salt, err := crypto.RandomBytes(saltBytes)
	if err != nil {
		return sealedBlob{}, err
	}
	kek, err := deriveKEK(passphrase, salt)
	if err != nil {
		return sealedBlob{}, err
	}
	defer crypto.Wipe(kek[:])

	ct, err := crypto.Seal(kek, salt, plaintext)
	if err != nil {
		return sealedBlob{}, err
	}
	return sealedBlob{Salt: salt, Ciphertext: ct}, nil
}

func openWithPassphrase(deriveKEK func(passphrase string, salt []byte) ([32]byte, error), passphrase string, blob sealedBlob) ([]byte, error) {
	kek, err := deriveKEK(passphrase, blob.Salt)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(kek[:])

	pt, err := crypto.Open(kek, blob.Salt, blob.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("store: decrypt: %w", domain.ErrStoreAuthFail)
	}
	return pt, nil
}
