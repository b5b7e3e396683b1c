// Package keyfile is the key-file surface consumed by the Key Generator
// and key loader: it owns on-disk persistence of a mirror-field key as a
// base64-encoded byte stream, auto-creating missing files the way the
// original mrrcrypt's keyfile_open/keyfile_create did.
package keyfile

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mirrorcrypt/internal/mirrorengine"
)

// Store is an owned handle to a key file on disk, replacing the original's
// single global file pointer so multiple keys can be open at once.
type Store struct {
	Path string
}

// Open returns a Store for path. If the file does not exist and
// autoCreate is true, a fresh random key is generated and written to path
// (creating any missing parent directories), mirroring the original's
// auto-create-on-open behavior.
func Open(path string, autoCreate bool) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("keyfile: stat %s: %w", path, err)
		}
		if !autoCreate {
			return nil, fmt.Errorf("keyfile: %s does not exist", path)
		}
		if err := Create(path, nil); err != nil {
			return nil, err
		}
	}
	return &Store{Path: path}, nil
}

// Create generates a fresh key with rng (or a wall-clock-seeded default
// generator when rng is nil) and writes it to path, base64-encoded,
// creating any missing parent directories along the way.
func Create(path string, rng *rand.Rand) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("keyfile: create directories for %s: %w", path, err)
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return WriteKey(path, mirrorengine.NewKeyGenerator(rng).Generate())
}

// WriteKey base64-encodes the full serialized key and writes it to path.
// The engine itself never sees the base64 framing, only the decoded
// bytes Load hands it.
func WriteKey(path string, key []byte) error {
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
		return fmt.Errorf("keyfile: write %s: %w", path, err)
	}
	return nil
}

// DecodedBytes reads and base64-decodes the key file without loading it
// into an Engine, for callers (fingerprinting, QR display) that only need
// the raw byte stream.
func (s *Store) DecodedBytes() ([]byte, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("keyfile: read %s: %w", s.Path, err)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("keyfile: %s is not valid base64: %w", s.Path, err)
	}
	return decoded, nil
}

// Load reads the key file, decodes its base64 framing, and feeds each
// decoded byte into a fresh Engine in serialized order, then validates it.
func (s *Store) Load() (*mirrorengine.Engine, error) {
	decoded, err := s.DecodedBytes()
	if err != nil {
		return nil, err
	}

	e := mirrorengine.NewEngine()
	for _, b := range decoded {
		if err := e.Set(b); err != nil {
			return nil, fmt.Errorf("keyfile: loading %s: %w", s.Path, err)
		}
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("keyfile: validating %s: %w", s.Path, err)
	}
	return e, nil
}
