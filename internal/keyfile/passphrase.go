package keyfile

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/argon2"
	"golang.org/x/term"
)

// PassphrasePolicy holds the Argon2id parameters used to stretch a user
// passphrase into PRNG seed material before it reaches the Key Generator.
// The mirror-field engine itself never requires key derivation, this is a
// convenience the CLI layers on top.
type PassphrasePolicy struct {
	MemMB    uint32
	Time     uint32
	Parallel uint8
}

// DefaultPassphrasePolicy returns recommended Argon2id parameters.
func DefaultPassphrasePolicy() PassphrasePolicy {
	return PassphrasePolicy{MemMB: 512, Time: 3, Parallel: 1}
}

// SeedFromPassphrase derives a deterministic PRNG seed from a passphrase
// via Argon2id (domain-separated with a fixed salt so the same passphrase
// doesn't collide with other tools), canonicalized with a final SHA-256.
// The returned *rand.Rand reproduces the exact same key when fed to
// KeyGenerator given the same passphrase and policy.
func SeedFromPassphrase(passphrase string, policy PassphrasePolicy) *rand.Rand {
	salt := []byte("mirrorcrypt/v1/argon2id/domain-sep")
	mem := policy.MemMB
	if mem == 0 {
		mem = 512
	}
	t := policy.Time
	if t == 0 {
		t = 3
	}
	par := policy.Parallel
	if par == 0 {
		par = 1
	}

	derived := argon2.IDKey([]byte(passphrase), salt, t, mem*1024, par, 32)
	sum := sha256.Sum256(derived)
	seed := int64(binary.BigEndian.Uint64(sum[0:8])) ^
		int64(binary.BigEndian.Uint64(sum[8:16])) ^
		int64(binary.BigEndian.Uint64(sum[16:24])) ^
		int64(binary.BigEndian.Uint64(sum[24:32]))

	return rand.New(rand.NewSource(seed))
}

// PromptForPassphrase securely prompts for a passphrase twice (no echo,
// via term.ReadPassword) and verifies both entries match.
func PromptForPassphrase() (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("keyfile: passphrase prompt requires an interactive terminal")
	}

	fmt.Fprint(os.Stdout, "Enter passphrase: ")
	p1, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return "", fmt.Errorf("keyfile: failed to read passphrase")
	}

	fmt.Fprint(os.Stdout, "Re-enter passphrase: ")
	p2, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return "", fmt.Errorf("keyfile: failed to read passphrase")
	}

	if string(p1) != string(p2) {
		return "", fmt.Errorf("keyfile: passphrases do not match")
	}
	return strings.TrimSpace(string(p1)), nil
}
