package keyfile

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"mirrorcrypt/internal/mirrorengine"
)

func TestCreateAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key")

	if err := Create(path, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Create: %v", err)
	}

	store := &Store{Path: path}
	engine, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Crypt('A'); err != nil {
		t.Fatalf("loaded engine rejected a valid alphabet byte: %v", err)
	}
}

func TestCreateAutoCreatesMissingParentDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "key")

	if err := Create(path, rand.New(rand.NewSource(2))); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("key file not written: %v", err)
	}
}

func TestOpenWithoutAutoCreateFailsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing-key")

	if _, err := Open(path, false); err == nil {
		t.Fatal("Open(autoCreate=false) on missing file succeeded, want error")
	}
}

func TestOpenAutoCreatesOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auto-key")

	store, err := Open(path, true)
	if err != nil {
		t.Fatalf("Open(autoCreate=true): %v", err)
	}
	if _, err := os.Stat(store.Path); err != nil {
		t.Fatalf("auto-created key file missing: %v", err)
	}

	// Opening again must not regenerate the key.
	before, err := store.DecodedBytes()
	if err != nil {
		t.Fatalf("DecodedBytes: %v", err)
	}
	store2, err := Open(path, true)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	after, err := store2.DecodedBytes()
	if err != nil {
		t.Fatalf("DecodedBytes (second): %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("re-opening an existing key file changed its contents")
	}
}

func TestWriteKeyAndDecodedBytesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw-key")

	key := mirrorengine.NewKeyGenerator(rand.New(rand.NewSource(9))).Generate()
	if err := WriteKey(path, key); err != nil {
		t.Fatalf("WriteKey: %v", err)
	}

	store := &Store{Path: path}
	decoded, err := store.DecodedBytes()
	if err != nil {
		t.Fatalf("DecodedBytes: %v", err)
	}
	if string(decoded) != string(key) {
		t.Fatalf("decoded key does not match written key")
	}
}

func TestDecodedBytesRejectsInvalidBase64(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad-key")
	if err := os.WriteFile(path, []byte("not valid base64!!"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := &Store{Path: path}
	if _, err := store.DecodedBytes(); err == nil {
		t.Fatal("DecodedBytes on malformed file succeeded, want error")
	}
}

func TestLoadRejectsTruncatedKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short-key")

	key := mirrorengine.NewKeyGenerator(rand.New(rand.NewSource(4))).Generate()
	if err := WriteKey(path, key[:len(key)-1]); err != nil {
		t.Fatalf("WriteKey: %v", err)
	}

	store := &Store{Path: path}
	if _, err := store.Load(); err == nil {
		t.Fatal("Load on truncated key succeeded, want error")
	}
}

func TestFingerprintIsDeterministicAndSensitiveToKey(t *testing.T) {
	keyA := mirrorengine.NewKeyGenerator(rand.New(rand.NewSource(5))).Generate()
	keyB := mirrorengine.NewKeyGenerator(rand.New(rand.NewSource(6))).Generate()

	if Fingerprint(keyA) != Fingerprint(keyA) {
		t.Fatal("Fingerprint is not deterministic for the same key bytes")
	}
	if Fingerprint(keyA) == Fingerprint(keyB) {
		t.Fatal("Fingerprint collided for two different keys")
	}
}

func TestSeedFromPassphraseIsDeterministic(t *testing.T) {
	policy := DefaultPassphrasePolicy()

	r1 := SeedFromPassphrase("correct horse battery staple", policy)
	r2 := SeedFromPassphrase("correct horse battery staple", policy)

	key1 := mirrorengine.NewKeyGenerator(r1).Generate()
	key2 := mirrorengine.NewKeyGenerator(r2).Generate()

	if string(key1) != string(key2) {
		t.Fatal("same passphrase and policy produced different generated keys")
	}
}

func TestSeedFromPassphraseDiffersByPassphrase(t *testing.T) {
	policy := DefaultPassphrasePolicy()

	r1 := SeedFromPassphrase("passphrase one", policy)
	r2 := SeedFromPassphrase("passphrase two", policy)

	key1 := mirrorengine.NewKeyGenerator(r1).Generate()
	key2 := mirrorengine.NewKeyGenerator(r2).Generate()

	if string(key1) == string(key2) {
		t.Fatal("different passphrases produced the same generated key")
	}
}
