package keyring

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

// memKeyring swaps the OS keyring for a map for the duration of a test.
func memKeyring(t *testing.T) map[string]string {
	t.Helper()
	origSet, origGet, origDelete := keyringSet, keyringGet, keyringDelete
	t.Cleanup(func() {
		keyringSet, keyringGet, keyringDelete = origSet, origGet, origDelete
	})
	store := make(map[string]string)
	keyringSet = func(app, field, value string) error {
		store[app+"/"+field] = value
		return nil
	}
	keyringGet = func(app, field string) (string, error) {
		v, ok := store[app+"/"+field]
		if !ok {
			return "", ErrNotFound
		}
		return v, nil
	}
	keyringDelete = func(app, field string) error {
		if _, ok := store[app+"/"+field]; !ok {
			return ErrNotFound
		}
		delete(store, app+"/"+field)
		return nil
	}
	return store
}

func TestKeyringSetGetDelete(t *testing.T) {
	store := memKeyring(t)
	origRandRead := randRead
	defer func() { randRead = origRandRead }()
	randRead = func(b []byte) (int, error) {
		for i := range b {
			b[i] = 0x01
		}
		return len(b), nil
	}

	kr := NewKeyring()
	key, err := kr.SetKey()
	if err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	if !bytes.Equal(key, bytes.Repeat([]byte{0x01}, 32)) {
		t.Fatalf("unexpected key %x", key)
	}
	if store["delugectl/session-key"] != hex.EncodeToString(key) {
		t.Fatalf("key stored as %q", store["delugectl/session-key"])
	}

	got, err := kr.GetKey()
	if err != nil {
		t.Fatalf("GetKey: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatalf("GetKey returned %x, want %x", got, key)
	}

	if err := kr.DeleteKey(); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
	if _, err := kr.GetKey(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetKey after delete: %v", err)
	}
}

func TestKeyringGetKeyInvalidHex(t *testing.T) {
	store := memKeyring(t)
	kr := NewKeyring()
	store[kr.AppName+"/"+kr.KeyField] = "zz"
	if _, err := kr.GetKey(); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
}

func TestKeyringSetKeyRandError(t *testing.T) {
	memKeyring(t)
	origRandRead := randRead
	defer func() { randRead = origRandRead }()
	randRead = func([]byte) (int, error) { return 0, errors.New("no entropy") }
	if _, err := NewKeyring().SetKey(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestKeyringPasswords(t *testing.T) {
	store := memKeyring(t)
	kr := NewKeyring()
	if err := kr.SetPassword("localhost:8112", "deluge"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if store["delugectl/password:localhost:8112"] != "deluge" {
		t.Fatalf("password stored under wrong field: %v", store)
	}
	pw, err := kr.GetPassword("localhost:8112")
	if err != nil || pw != "deluge" {
		t.Fatalf("GetPassword: %q, %v", pw, err)
	}
	if _, err := kr.GetPassword("other:8112"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetPassword for unknown host: %v", err)
	}
	if err := kr.DeletePassword("localhost:8112"); err != nil {
		t.Fatalf("DeletePassword: %v", err)
	}
	if err := kr.DeletePassword("localhost:8112"); err != nil {
		t.Fatalf("second DeletePassword should be a no-op: %v", err)
	}
}
