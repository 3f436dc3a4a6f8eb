package evo

import "sort"

// SelectionMode names the parent-selection policy applied at replacement.
type SelectionMode string

const (
	// SelectionTruncation ranks the population and breeds from a top slice;
	// used by the autonomous driver.
	SelectionTruncation SelectionMode = "truncation"
	// SelectionDirect breeds from every individual with strictly positive
	// fitness; used when fitness judgments arrive interactively.
	SelectionDirect SelectionMode = "direct"
)

// sortForTruncation orders the population in place from worst to best under
// the optimization direction, so the last element is the ranked best. The
// population array's order carries meaning: its last element is the elitism
// source for the next generation.
func sortForTruncation(population []Individual, direction Direction) {
	sort.SliceStable(population, func(i, j int) bool {
		if direction == Minimize {
			return population[i].Fitness > population[j].Fitness
		}
		return population[i].Fitness < population[j].Fitness
	})
}

// truncationPool slices the ranked population from floor(n*fraction) through
// n-2 inclusive: the worst-ranked fraction is cut off and the single
// best-ranked individual is reserved as the elitism source, not as a
// breeding parent.
func truncationPool(ranked []Individual, fraction float64) []Individual {
	lo := int(float64(len(ranked)) * fraction)
	hi := len(ranked) - 1
	if lo >= hi {
		return nil
	}
	return ranked[lo:hi]
}

// directPool selects every individual with strictly positive fitness,
// falling back to the whole population when none qualifies.
func directPool(population []Individual) []Individual {
	pool := make([]Individual, 0, len(population))
	for _, ind := range population {
		if ind.Evaluated && ind.Fitness > 0 {
			pool = append(pool, ind)
		}
	}
	if len(pool) == 0 {
		return population
	}
	return pool
}
