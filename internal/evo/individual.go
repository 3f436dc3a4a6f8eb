package evo

import "glossa/internal/genome"

// Individual ties a genome to its derived phenotype. Fitness is unset until
// the first tell assigns it. Genome positions beyond UsedCodons are introns:
// never read by the mapper for this phenotype, yet still transmitted by the
// genetic operators.
type Individual struct {
	Genome     genome.Genome
	Phenotype  string
	UsedCodons int
	Fitness    float64
	Evaluated  bool
}

func (ind Individual) clone() Individual {
	out := ind
	out.Genome = ind.Genome.Clone()
	return out
}

func cloneAll(individuals []Individual) []Individual {
	out := make([]Individual, len(individuals))
	for i := range individuals {
		out[i] = individuals[i].clone()
	}
	return out
}
