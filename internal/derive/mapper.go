// Package derive maps integer genomes to textual phenotypes through a
// leftmost depth-first grammar derivation.
package derive

import (
	"errors"
	"fmt"
	"strings"

	"glossa/internal/grammar"
)

// ErrMappingFailure reports a derivation that exhausted the genome before
// reaching an all-terminal expansion. Callers discard the genome and retry
// with a fresh one; the failure is never a valid zero-fitness individual.
var ErrMappingFailure = errors.New("mapping failure: genome exhausted")

// ErrDepthBoundUnsatisfiable reports a recursive nonterminal whose every
// production recurses directly into itself, making the depth bound
// impossible to honor.
var ErrDepthBoundUnsatisfiable = errors.New("depth bound unsatisfiable")

// Result is a successful derivation: the phenotype text and the number of
// genome positions actually consumed. Positions beyond UsedCodons are
// introns for this phenotype.
type Result struct {
	Phenotype  string
	UsedCodons int
}

// Mapper derives phenotypes from genomes against one grammar with a fixed
// maximum recursion depth. A Mapper is pure and safe to reuse across calls.
type Mapper struct {
	grammar  *grammar.Grammar
	maxDepth int
}

func NewMapper(g *grammar.Grammar, maxDepth int) (*Mapper, error) {
	if g == nil {
		return nil, fmt.Errorf("grammar is required")
	}
	if maxDepth < 0 {
		return nil, fmt.Errorf("max depth must be >= 0, got %d", maxDepth)
	}
	return &Mapper{grammar: g, maxDepth: maxDepth}, nil
}

// Map expands the grammar's start symbol using genome codons to select
// productions. A single cursor is threaded through the whole derivation:
// each nonterminal expansion consumes the globally next unread codon.
func (m *Mapper) Map(genome []int) (Result, error) {
	var sb strings.Builder
	used, err := m.expand(&sb, m.grammar.Start(), genome, 0, 0)
	if err != nil {
		return Result{}, err
	}
	return Result{Phenotype: sb.String(), UsedCodons: used}, nil
}

func (m *Mapper) expand(sb *strings.Builder, sym grammar.Symbol, genome []int, cursor, depth int) (int, error) {
	if !sym.IsNonterminal() {
		sb.WriteString(string(sym))
		return cursor, nil
	}
	if cursor >= len(genome) {
		return cursor, fmt.Errorf("%w: expanding %q at position %d", ErrMappingFailure, sym, cursor)
	}

	codon := genome[cursor]
	cursor++

	productions, ok := m.grammar.Productions(sym)
	if !ok {
		return cursor, fmt.Errorf("no productions for %q", sym)
	}
	production := productions[codon%len(productions)]

	if depth >= m.maxDepth && m.grammar.IsRecursive(sym) && production.Contains(sym) {
		modulus := m.grammar.CodonModulus()
		found := false
		for step := 1; step <= modulus; step++ {
			candidate := productions[((codon+step)%modulus)%len(productions)]
			if !candidate.Contains(sym) {
				production = candidate
				found = true
				break
			}
		}
		if !found {
			return cursor, fmt.Errorf("%w: every production of %q recurses at depth %d", ErrDepthBoundUnsatisfiable, sym, depth)
		}
	}

	for _, sub := range production {
		var err error
		cursor, err = m.expand(sb, sub, genome, cursor, depth+1)
		if err != nil {
			return cursor, err
		}
	}
	return cursor, nil
}
