// Package fitness provides the named demo evaluators the host application
// offers for autonomous runs. The engine itself treats evaluators as opaque
// collaborators; anything implementing evo.Evaluator plugs in the same way.
package fitness

import (
	"fmt"
	"sort"

	"glossa/internal/evo"
)

// Resolve builds a named evaluator. The target string parameterizes the
// textmatch evaluator and is ignored by the others.
func Resolve(name, target string) (evo.Evaluator, error) {
	switch name {
	case "symbolic":
		return NewSymbolicRegression(nil), nil
	case "textmatch":
		return NewTextMatch(target), nil
	default:
		return nil, fmt.Errorf("unknown evaluator: %s", name)
	}
}

// Names lists the available evaluator names in sorted order.
func Names() []string {
	names := []string{"symbolic", "textmatch"}
	sort.Strings(names)
	return names
}
