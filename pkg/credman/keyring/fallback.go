// Package keyring stores the session encryption key and daemon passwords in
// the operating system keyring. FileKeyStore keeps the key on disk for hosts
// without a keyring service.
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	keyFileName = "session.key"
	keyFileMode = 0600
)

// FileKeyStore keeps the key hex encoded in a 0600 file inside dir.
type FileKeyStore struct {
	dir string
}

var (
	fileRandRead  = rand.Read
	fileReadFile  = os.ReadFile
	fileRemove    = os.Remove
	fileRename    = os.Rename
	fileMkdirAll  = os.MkdirAll
	fileCreateTmp = os.CreateTemp
)

func NewFileKeyStore(dir string) *FileKeyStore {
	return &FileKeyStore{dir: dir}
}

// Path returns the location of the key file.
func (f *FileKeyStore) Path() string {
	return filepath.Join(f.dir, keyFileName)
}

// SetKey generates a new key and replaces the key file atomically.
func (f *FileKeyStore) SetKey() ([]byte, error) {
	if err := fileMkdirAll(f.dir, 0700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	key := make([]byte, 32)
	if _, err := fileRandRead(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	tmp, err := fileCreateTmp(f.dir, "."+keyFileName+".*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	fail := func(stage string, err error) ([]byte, error) {
		_ = tmp.Close()
		_ = fileRemove(tmpPath)
		return nil, fmt.Errorf("%s: %w", stage, err)
	}
	if err := tmp.Chmod(keyFileMode); err != nil {
		return fail("set permissions", err)
	}
	if _, err := tmp.WriteString(hex.EncodeToString(key)); err != nil {
		return fail("write key", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("close temp file", err)
	}
	if err := fileRename(tmpPath, f.Path()); err != nil {
		_ = fileRemove(tmpPath)
		return nil, fmt.Errorf("rename key file: %w", err)
	}
	return key, nil
}

// GetKey reads the key file. A missing file reports an os.IsNotExist error.
func (f *FileKeyStore) GetKey() ([]byte, error) {
	data, err := fileReadFile(f.Path())
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid key length: expected 32, got %d", len(key))
	}
	return key, nil
}

func (f *FileKeyStore) DeleteKey() error {
	return fileRemove(f.Path())
}
