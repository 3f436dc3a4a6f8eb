package evo

// noveltyCache records every phenotype ever admitted into any population
// built by one engine instance. It only grows: a phenotype equal to one
// produced in an earlier generation is rejected even if that individual is
// no longer alive.
type noveltyCache map[string]struct{}

func (c noveltyCache) seen(phenotype string) bool {
	_, ok := c[phenotype]
	return ok
}

func (c noveltyCache) add(phenotype string) {
	c[phenotype] = struct{}{}
}
