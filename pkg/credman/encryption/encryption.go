// Package encryption seals small secrets, such as session cookie values,
// with AES-256-GCM before they are written to disk.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required key length in bytes.
const KeySize = 32

// sealed values start with this tag so a foreign blob is rejected early
const gcmPrefix = "gcm1"

var (
	ErrInvalidKey      = fmt.Errorf("encryption key must be %d bytes", KeySize)
	ErrCiphertextShort = errors.New("ciphertext too short")
	ErrUnknownFormat   = errors.New("ciphertext has unknown format")
	randReader         = rand.Reader
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptValue seals value under key. The output is
// prefix || nonce || ciphertext.
func EncryptValue(value string, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(gcmPrefix)+len(nonce)+len(value)+gcm.Overhead())
	out = append(out, gcmPrefix...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, []byte(value), nil), nil
}

// DecryptValue opens a value sealed by EncryptValue.
func DecryptValue(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < len(gcmPrefix) || string(ciphertext[:len(gcmPrefix)]) != gcmPrefix {
		return nil, ErrUnknownFormat
	}
	rest := ciphertext[len(gcmPrefix):]
	if len(rest) < gcm.NonceSize()+gcm.Overhead() {
		return nil, ErrCiphertextShort
	}
	nonce, data := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	return gcm.Open(nil, nonce, data, nil)
}
