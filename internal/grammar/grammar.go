package grammar

import (
	"errors"
	"fmt"
)

// ErrInvalidGrammar reports a grammar description that failed validation.
var ErrInvalidGrammar = errors.New("invalid grammar")

// Symbol is one element of a production: either a terminal literal or a
// nonterminal reference. Nonterminals are written with angle-bracket
// delimiters, e.g. "<expr>"; everything else is terminal text.
type Symbol string

func (s Symbol) IsNonterminal() bool {
	return len(s) >= 3 && s[0] == '<' && s[len(s)-1] == '>'
}

// Production is an ordered sequence of symbols.
type Production []Symbol

// Contains reports whether the production holds sym as a direct sub-symbol.
func (p Production) Contains(sym Symbol) bool {
	for _, s := range p {
		if s == sym {
			return true
		}
	}
	return false
}

// Rule pairs a nonterminal with its ordered, non-empty production list.
// Rule order is the scan order of the source description; the first rule
// names the start symbol.
type Rule struct {
	Name        Symbol
	Productions []Production
}

// Grammar is the immutable structural model of a context-free grammar,
// built once from a description and never mutated afterwards.
type Grammar struct {
	start        Symbol
	order        []Symbol
	rules        map[Symbol][]Production
	terminals    map[Symbol]struct{}
	recursive    map[Symbol]struct{}
	codonModulus int
}

// New validates an ordered rule list and derives the grammar invariants:
// the terminal/nonterminal partition, direct-recursion detection, the start
// symbol, and the codon modulus (LCM of all production counts).
func New(rules []Rule) (*Grammar, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no rules", ErrInvalidGrammar)
	}

	g := &Grammar{
		rules:        make(map[Symbol][]Production, len(rules)),
		terminals:    make(map[Symbol]struct{}),
		recursive:    make(map[Symbol]struct{}),
		codonModulus: 1,
	}

	for _, rule := range rules {
		if !rule.Name.IsNonterminal() {
			return nil, fmt.Errorf("%w: rule name %q is not delimited as a nonterminal", ErrInvalidGrammar, rule.Name)
		}
		if _, dup := g.rules[rule.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate rule for %q", ErrInvalidGrammar, rule.Name)
		}
		if len(rule.Productions) == 0 {
			return nil, fmt.Errorf("%w: nonterminal %q has no productions", ErrInvalidGrammar, rule.Name)
		}
		g.rules[rule.Name] = rule.Productions
		g.order = append(g.order, rule.Name)
	}
	g.start = rules[0].Name

	for _, rule := range rules {
		for _, production := range rule.Productions {
			for _, sym := range production {
				if !sym.IsNonterminal() {
					g.terminals[sym] = struct{}{}
					continue
				}
				if _, declared := g.rules[sym]; !declared {
					return nil, fmt.Errorf("%w: production of %q references undeclared nonterminal %q", ErrInvalidGrammar, rule.Name, sym)
				}
				if sym == rule.Name {
					g.recursive[rule.Name] = struct{}{}
				}
			}
		}
		g.codonModulus = lcm(g.codonModulus, len(rule.Productions))
	}

	return g, nil
}

// Start returns the first nonterminal of the scanned description.
func (g *Grammar) Start() Symbol {
	return g.start
}

// Productions returns the ordered production list of a nonterminal.
func (g *Grammar) Productions(sym Symbol) ([]Production, bool) {
	productions, ok := g.rules[sym]
	return productions, ok
}

// CodonModulus is the least common multiple of every nonterminal's
// production count. Selecting codon mod productionCount with codons drawn
// uniformly from [0, CodonModulus) is uniform over each production list.
func (g *Grammar) CodonModulus() int {
	return g.codonModulus
}

// IsRecursive reports whether one of sym's own productions contains sym as
// a direct sub-symbol. Indirect recursion through other nonterminals is
// deliberately not detected.
func (g *Grammar) IsRecursive(sym Symbol) bool {
	_, ok := g.recursive[sym]
	return ok
}

// Nonterminals returns the nonterminal symbols in declaration order.
func (g *Grammar) Nonterminals() []Symbol {
	out := make([]Symbol, len(g.order))
	copy(out, g.order)
	return out
}

// Terminals returns the terminal symbols in an unspecified order.
func (g *Grammar) Terminals() []Symbol {
	out := make([]Symbol, 0, len(g.terminals))
	for sym := range g.terminals {
		out = append(out, sym)
	}
	return out
}

// RecursiveNonterminals returns the directly recursive nonterminals in
// declaration order.
func (g *Grammar) RecursiveNonterminals() []Symbol {
	out := make([]Symbol, 0, len(g.recursive))
	for _, sym := range g.order {
		if g.IsRecursive(sym) {
			out = append(out, sym)
		}
	}
	return out
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
