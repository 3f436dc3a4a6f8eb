// Package genome holds the codon-sequence genotype and its genetic
// operators.
package genome

import (
	"fmt"
	"math/rand"
)

// Genome is a fixed-length ordered sequence of codons, each in
// [0, codonModulus). Length is a configuration constant for a whole run.
type Genome []int

// NewRandom draws a genome of the given length with codons uniform in
// [0, codonModulus), consuming length draws from rng left to right.
func NewRandom(rng *rand.Rand, length, codonModulus int) (Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if length <= 0 {
		return nil, fmt.Errorf("genome length must be > 0, got %d", length)
	}
	if codonModulus < 1 {
		return nil, fmt.Errorf("codon modulus must be >= 1, got %d", codonModulus)
	}
	g := make(Genome, length)
	for i := range g {
		g[i] = rng.Intn(codonModulus)
	}
	return g, nil
}

// Clone returns an independent copy of the genome.
func (g Genome) Clone() Genome {
	out := make(Genome, len(g))
	copy(out, g)
	return out
}

// Mutate returns a copy of g with exactly one locus replaced. The locus is
// drawn uniformly from [0, usedCodons) and the new value uniformly from
// [0, codonModulus); rng is consumed in that order.
func Mutate(rng *rand.Rand, g Genome, usedCodons, codonModulus int) (Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if usedCodons <= 0 || usedCodons > len(g) {
		return nil, fmt.Errorf("used codon count must be in [1, %d], got %d", len(g), usedCodons)
	}
	if codonModulus < 1 {
		return nil, fmt.Errorf("codon modulus must be >= 1, got %d", codonModulus)
	}
	out := g.Clone()
	locus := rng.Intn(usedCodons)
	out[locus] = rng.Intn(codonModulus)
	return out, nil
}

// Crossover recombines two equal-length genomes at a single cut point drawn
// uniformly from [0, min(usedA, usedB)). Child one is a's prefix followed by
// b's suffix; child two is the symmetric combination. Trailing intron
// material recombines positionally. When the bound is zero the cut point is
// zero, so the children are exact copies of the opposite parent.
func Crossover(rng *rand.Rand, a Genome, usedA int, b Genome, usedB int) (Genome, Genome, error) {
	if rng == nil {
		return nil, nil, fmt.Errorf("random source is required")
	}
	if len(a) != len(b) {
		return nil, nil, fmt.Errorf("genome length mismatch: %d vs %d", len(a), len(b))
	}
	if usedA < 0 || usedA > len(a) || usedB < 0 || usedB > len(b) {
		return nil, nil, fmt.Errorf("used codon counts out of range: %d, %d", usedA, usedB)
	}

	bound := usedA
	if usedB < bound {
		bound = usedB
	}
	cut := 0
	if bound > 0 {
		cut = rng.Intn(bound)
	}

	child1 := make(Genome, len(a))
	copy(child1, a[:cut])
	copy(child1[cut:], b[cut:])
	child2 := make(Genome, len(b))
	copy(child2, b[:cut])
	copy(child2[cut:], a[cut:])
	return child1, child2, nil
}
