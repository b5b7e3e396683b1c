package mirrorengine

import (
	"math/rand"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	g := NewKeyGenerator(rand.New(rand.NewSource(1)))
	key := g.Generate()
	if len(key) != N*N+P {
		t.Fatalf("len(key) = %d, want %d", len(key), N*N+P)
	}
}

func TestGenerateDeterministicWithSameSeed(t *testing.T) {
	a := NewKeyGenerator(rand.New(rand.NewSource(42))).Generate()
	b := NewKeyGenerator(rand.New(rand.NewSource(42))).Generate()
	if string(a) != string(b) {
		t.Fatalf("same seed produced different keys")
	}
}

func TestGeneratePerimeterIsPermutationOfAlphabet(t *testing.T) {
	g := NewKeyGenerator(rand.New(rand.NewSource(7)))
	key := g.Generate()
	perim := key[N*N:]

	seen := make(map[byte]bool, P)
	for _, b := range perim {
		if seen[b] {
			t.Fatalf("generated perimeter has duplicate byte %q", b)
		}
		seen[b] = true
	}
	for _, b := range Alphabet {
		if !seen[b] {
			t.Fatalf("generated perimeter missing alphabet byte %q", b)
		}
	}
}

func TestGenerateGridGlyphsAreValid(t *testing.T) {
	g := NewKeyGenerator(rand.New(rand.NewSource(99)))
	key := g.Generate()
	grid := key[:N*N]
	for _, b := range grid {
		if !IsMirrorGlyph(b) {
			t.Fatalf("generated grid contains non-glyph byte %q", b)
		}
		if b == '-' {
			t.Fatalf("generator must never emit '-' (straight mirrors are hand-authored only)")
		}
	}
}

func TestShuffleProducesPermutation(t *testing.T) {
	g := NewKeyGenerator(rand.New(rand.NewSource(3)))
	original := append([]byte(nil), Alphabet...)
	scrambled := append([]byte(nil), Alphabet...)
	g.shuffle(scrambled, shuffleIterations)

	origCounts := make(map[byte]int)
	for _, b := range original {
		origCounts[b]++
	}
	for _, b := range scrambled {
		origCounts[b]--
	}
	for b, c := range origCounts {
		if c != 0 {
			t.Fatalf("shuffle changed multiset of characters: %q count off by %d", b, c)
		}
	}
}
