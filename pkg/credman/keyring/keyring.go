package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// ErrNotFound is returned when the requested secret is not stored.
var ErrNotFound = keyring.ErrNotFound

// Keyring keeps the session encryption key and daemon passwords in the
// operating system keyring, all under the AppName service.
type Keyring struct {
	AppName  string
	KeyField string
}

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

func NewKeyring() *Keyring {
	return &Keyring{
		AppName:  "delugectl",
		KeyField: "session-key",
	}
}

// SetKey generates and stores a new 32 byte key.
func (k *Keyring) SetKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := randRead(key); err != nil {
		return nil, err
	}
	if err := keyringSet(k.AppName, k.KeyField, hex.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

func (k *Keyring) GetKey() ([]byte, error) {
	stored, err := keyringGet(k.AppName, k.KeyField)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(stored)
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	return key, nil
}

func (k *Keyring) DeleteKey() error {
	return keyringDelete(k.AppName, k.KeyField)
}

func passwordField(host string) string {
	return "password:" + host
}

// SetPassword remembers the web UI password for host.
func (k *Keyring) SetPassword(host, password string) error {
	return keyringSet(k.AppName, passwordField(host), password)
}

// GetPassword returns the stored password for host, or ErrNotFound.
func (k *Keyring) GetPassword(host string) (string, error) {
	return keyringGet(k.AppName, passwordField(host))
}

// DeletePassword forgets the password for host. A missing entry is not an
// error.
func (k *Keyring) DeletePassword(host string) error {
	err := keyringDelete(k.AppName, passwordField(host))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
