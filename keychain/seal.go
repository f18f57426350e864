package keychain

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// Argon2id parameters for base key sealing.
	argon2Time        = 3
	argon2Memory      = 64 * 1024 // 64 MB
	argon2Parallelism = 4
	argon2KeyLen      = 32

	// Sealed blob layout sizes.
	saltLen     = 16
	nonceLen    = 12
	checksumLen = 4
)

// SealBaseKey encrypts a base secret key for at-rest storage with
// Argon2id + AES-256-GCM.
//
// Blob format: salt(16B) || nonce(12B) || AES-GCM(argon2id(passphrase,salt), nonce, key||checksum)
//
// The checksum is SHA256(key)[:4], verified on open to catch a wrong
// passphrase before the key is used.
func SealBaseKey(baseHex, passphrase string) ([]byte, error) {
	if err := validateSecretKey(baseHex); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(baseHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecretKey, err)
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: generate salt: %v", ErrSealFailed, err)
	}

	derived := argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLen)

	sum := sha256.Sum256(raw)
	plaintext := append(raw, sum[:checksumLen]...)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: generate nonce: %v", ErrSealFailed, err)
	}

	ct := gcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 0, saltLen+nonceLen+len(ct))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ct...)
	return blob, nil
}

// OpenBaseKey decrypts a sealed base key blob and returns the 64-hex-char
// secret. A wrong passphrase or a corrupt blob yields ErrOpenFailed.
func OpenBaseKey(blob []byte, passphrase string) (string, error) {
	if len(blob) < saltLen+nonceLen+checksumLen {
		return "", ErrOpenFailed
	}

	salt := blob[:saltLen]
	nonce := blob[saltLen : saltLen+nonceLen]
	ct := blob[saltLen+nonceLen:]

	derived := argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLen)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return "", ErrOpenFailed
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrOpenFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrOpenFailed
	}
	if len(plaintext) != 32+checksumLen {
		return "", ErrOpenFailed
	}

	raw := plaintext[:32]
	sum := sha256.Sum256(raw)
	for i := 0; i < checksumLen; i++ {
		if plaintext[32+i] != sum[i] {
			return "", ErrOpenFailed
		}
	}
	return hex.EncodeToString(raw), nil
}
