package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// domainWeights emphasizes vocabulary that matters for tutoring-platform
// memories, so hash vectors of related facts land closer together than
// pure token hashing would place them.
var domainWeights = map[string]float64{
	"name":       2.0,
	"family":     1.8,
	"son":        1.8,
	"daughter":   1.8,
	"mother":     1.8,
	"father":     1.8,
	"wife":       1.8,
	"husband":    1.8,
	"friend":     1.6,
	"pet":        1.6,
	"course":     1.8,
	"class":      1.6,
	"learn":      1.6,
	"learning":   1.6,
	"study":      1.6,
	"math":       1.5,
	"science":    1.5,
	"reading":    1.5,
	"grade":      1.5,
	"goal":       1.6,
	"like":       1.4,
	"love":       1.4,
	"favorite":   1.6,
	"prefer":     1.5,
	"canvas":     1.4,
	"lesson":     1.5,
	"homework":   1.5,
	"teacher":    1.4,
	"age":        1.5,
	"birthday":   1.5,
}

// Hash is a deterministic, language-agnostic embedding provider. It needs
// no network and no model: the same text always yields the bit-identical
// vector, which keeps search working offline and in tests.
type Hash struct {
	dimensions int
}

// NewHash creates a hash embedding provider with the given dimensionality.
func NewHash(dimensions int) *Hash {
	return &Hash{dimensions: dimensions}
}

// Embed never fails. Empty or non-lexical text yields the zero vector;
// anything else yields a unit-length vector.
func (h *Hash) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float64, h.dimensions)

	tokens := tokenize(text)
	for i, tok := range tokens {
		weight := 1.0
		if w, ok := domainWeights[tok]; ok {
			weight = w
		}
		// Earlier tokens carry slightly more signal; memory keys and
		// sentence subjects come first.
		weight *= 1.0 + 1.0/float64(i+1)

		bucket := int(hashToken(tok) % uint64(h.dimensions))
		// Smooth into ±3 neighboring buckets so near-identical token
		// sets produce overlapping mass instead of knife-edge spikes.
		for d := -3; d <= 3; d++ {
			idx := (bucket + d + h.dimensions) % h.dimensions
			vec[idx] += weight / float64(1+abs(d))
		}
	}

	out := make([]float32, h.dimensions)
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return out, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (h *Hash) Dimensions() int {
	return h.dimensions
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func hashToken(tok string) uint64 {
	f := fnv.New64a()
	f.Write([]byte(tok))
	return f.Sum64()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
