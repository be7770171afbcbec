// Package crypto encrypts the stored Google OAuth token at rest.
//
// Sealed blobs carry a short prefix so a token file written before encryption
// was configured is still readable: Open returns unprefixed input unchanged.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 100000
	keySize    = 32 // AES-256
)

var sealedPrefix = []byte("hc1:")

// ErrWrongKey is returned when a sealed blob cannot be opened with the key
var ErrWrongKey = errors.New("token could not be decrypted with the configured key")

// Encryptor seals and opens secrets with a passphrase-derived key
type Encryptor struct {
	key []byte
}

// NewEncryptor derives an AES-256 key from the passphrase. An empty
// passphrase returns nil, which seals and opens as a no-op.
func NewEncryptor(passphrase string) *Encryptor {
	if passphrase == "" {
		return nil
	}

	// The salt is derived from the passphrase so the same key can be
	// re-derived without storing anything next to the token.
	salt := sha256.Sum256([]byte(passphrase + "handicap-check-salt"))
	key := pbkdf2.Key([]byte(passphrase), salt[:], iterations, keySize, sha256.New)

	return &Encryptor{key: key}
}

// Enabled reports whether a key is configured
func (e *Encryptor) Enabled() bool {
	return e != nil && e.key != nil
}

// Seal encrypts plaintext with AES-GCM and returns a prefixed base64 blob
func (e *Encryptor) Seal(plaintext []byte) ([]byte, error) {
	if !e.Enabled() {
		return plaintext, nil
	}

	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	out := make([]byte, 0, len(sealedPrefix)+base64.StdEncoding.EncodedLen(len(sealed)))
	out = append(out, sealedPrefix...)
	out = base64.StdEncoding.AppendEncode(out, sealed)
	return out, nil
}

// Open reverses Seal. Data without the sealed prefix is returned unchanged.
func (e *Encryptor) Open(data []byte) ([]byte, error) {
	if !IsSealed(data) {
		return data, nil
	}
	if !e.Enabled() {
		return nil, fmt.Errorf("token is encrypted but no encryption key is configured")
	}

	raw, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data[len(sealedPrefix):])))
	if err != nil {
		return nil, fmt.Errorf("decoding sealed token: %w", err)
	}

	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, cipherData := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, cipherData, nil)
	if err != nil {
		return nil, ErrWrongKey
	}
	return plaintext, nil
}

// IsSealed reports whether data was produced by Seal
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealedPrefix)
}

func (e *Encryptor) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
