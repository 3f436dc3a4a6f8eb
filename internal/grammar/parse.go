package grammar

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes a grammar description into a Grammar. The description is a
// mapping from nonterminal to a list of productions, each production a list
// of symbols, e.g. {"<e>": [["0"], ["1"], ["<e>", "<e>"]]}. YAML and JSON
// documents are both accepted; mapping order is preserved, so the first key
// scanned becomes the start symbol.
func Parse(data []byte) (*Grammar, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGrammar, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("%w: expected a single mapping document", ErrInvalidGrammar)
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping of nonterminals to production lists", ErrInvalidGrammar)
	}

	rules := make([]Rule, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i]
		value := mapping.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: rule name at line %d must be a scalar", ErrInvalidGrammar, key.Line)
		}
		productions, err := parseProductions(key.Value, value)
		if err != nil {
			return nil, err
		}
		rules = append(rules, Rule{Name: Symbol(key.Value), Productions: productions})
	}
	return New(rules)
}

// ParseFile reads and parses a grammar description file.
func ParseFile(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grammar file: %w", err)
	}
	return Parse(data)
}

func parseProductions(name string, node *yaml.Node) ([]Production, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: productions of %q must be a list of lists", ErrInvalidGrammar, name)
	}
	productions := make([]Production, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: production of %q at line %d must be a list of symbols", ErrInvalidGrammar, name, item.Line)
		}
		production := make(Production, 0, len(item.Content))
		for _, sym := range item.Content {
			if sym.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: symbol of %q at line %d must be a scalar", ErrInvalidGrammar, name, sym.Line)
			}
			production = append(production, Symbol(sym.Value))
		}
		productions = append(productions, production)
	}
	return productions, nil
}
