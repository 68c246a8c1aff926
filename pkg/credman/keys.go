// Package credman keeps delugectl's credentials: the web UI session cookie,
// encrypted in a local SQLite database, and the key that encrypts it.
package credman

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/warpdl/delugectl/pkg/credman/encryption"
	"github.com/warpdl/delugectl/pkg/logger"
)

// KeyProvider stores the session encryption key.
type KeyProvider interface {
	GetKey() ([]byte, error)
	SetKey() ([]byte, error)
}

var ErrNoKeyProvider = errors.New("no key provider available")

// ParseHexKey decodes a key given as hex, as taken from the environment.
func ParseHexKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	if len(key) != encryption.KeySize {
		return nil, fmt.Errorf("invalid key length: expected %d, got %d", encryption.KeySize, len(key))
	}
	return key, nil
}

// LoadKey returns the first stored key found among providers. When none has
// one, a new key is created with the first provider that accepts it.
func LoadKey(l logger.Logger, providers ...KeyProvider) ([]byte, error) {
	if l == nil {
		l = logger.NewNopLogger()
	}
	for _, p := range providers {
		key, err := p.GetKey()
		if err == nil && len(key) == encryption.KeySize {
			return key, nil
		}
		if err != nil {
			l.Debug("key provider %T: %v", p, err)
		}
	}
	var errs []error
	for _, p := range providers {
		key, err := p.SetKey()
		if err == nil {
			return key, nil
		}
		l.Warning("could not store session key with %T: %v", p, err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrNoKeyProvider
	}
	return nil, errors.Join(errs...)
}
