package mirrorengine

import (
	"math/rand"
	"time"
)

// density is the mirror-density divisor D: for each grid cell a value is
// drawn from uniform{0..D-1}; 1 -> '/', 2 -> '\', anything else -> ' '.
// Straight mirrors ('-') are never produced by the generator; they may
// still appear in hand-authored keys and the Engine must accept them.
const density = 6

// shuffleIterations is the number of swap rounds p the shuffle procedure
// performs. It must match between any two parties regenerating keys from
// the same seed.
const shuffleIterations = 1000

// KeyGenerator produces fresh mirror-field keys conforming to the
// Alphabet & Key Model. It owns a pseudo-random source: callers that want
// reproducible keys (tests, deterministic fixtures) should inject their
// own *rand.Rand; production callers can pass nil for a wall-clock seed.
type KeyGenerator struct {
	rng *rand.Rand
}

// NewKeyGenerator returns a KeyGenerator using rng, or a wall-clock-seeded
// default generator when rng is nil.
func NewKeyGenerator(rng *rand.Rand) *KeyGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &KeyGenerator{rng: rng}
}

// Generate returns a freshly generated serialized key: N*N grid glyphs in
// row-major order, followed by P perimeter characters in slot order, the
// same order the Engine's Set expects to load them in.
func (g *KeyGenerator) Generate() []byte {
	out := make([]byte, 0, N*N+P)
	for i := 0; i < N*N; i++ {
		switch g.rng.Intn(density) {
		case 1:
			out = append(out, '/')
		case 2:
			out = append(out, '\\')
		default:
			out = append(out, ' ')
		}
	}

	perim := append([]byte(nil), Alphabet...)
	g.shuffle(perim, shuffleIterations)
	out = append(out, perim...)
	return out
}

// shuffle scrambles s in place by carrying one character through p
// randomly chosen positions (rejecting the reserved start index) and
// finally depositing the carried character back at the start index. It
// performs only swaps, so the result is always a permutation of s's
// original contents, though the distribution is biased, not uniform, and
// must be reproduced exactly bit-for-bit for on-disk key compatibility.
func (g *KeyGenerator) shuffle(s []byte, p int) {
	if len(s) == 0 {
		return
	}
	sIndex := g.rng.Intn(len(s))
	carry := s[sIndex]
	for i := 0; i < p; i++ {
		var rIndex int
		for {
			rIndex = g.rng.Intn(len(s))
			if rIndex != sIndex {
				break
			}
		}
		next := s[rIndex]
		s[rIndex] = carry
		carry = next
	}
	s[sIndex] = carry
}
