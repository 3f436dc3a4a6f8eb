package evo

import "context"

// Direction is the optimization sense an evaluator's fitness is tagged with.
type Direction string

const (
	Maximize Direction = "maximize"
	Minimize Direction = "minimize"
)

// betterOrEqual reports whether fitness a is at least as good as b. Equality
// counts as better so that ties resolve in favor of the later-compared
// individual.
func (d Direction) betterOrEqual(a, b float64) bool {
	if d == Minimize {
		return a <= b
	}
	return a >= b
}

// Evaluator scores phenotype text. It is an external collaborator: the
// engine never looks inside it and places no timing constraints on it.
type Evaluator interface {
	Name() string
	Direction() Direction
	Evaluate(ctx context.Context, phenotype string) (float64, error)
}
