package keyfile

import (
	"crypto/sha256"
	"encoding/base32"
)

// Fingerprint returns a short, human-comparable digest of a key file's
// decoded byte stream so two operators can confirm they hold byte-identical
// keys without exchanging the key itself.
func Fingerprint(decodedKey []byte) string {
	sum := sha256.Sum256(decodedKey)
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:])
}
