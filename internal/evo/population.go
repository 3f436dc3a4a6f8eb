package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"glossa/internal/derive"
	"glossa/internal/genome"
	"glossa/internal/grammar"
)

// ErrGenerationExhausted reports that initialization or replacement could
// not fill the population within the attempt budget. With a finite grammar
// and the global novelty constraint this is reachable, so it is surfaced
// fatally instead of looping forever.
var ErrGenerationExhausted = errors.New("generation exhausted: could not fill population")

// defaultFillAttemptsPerSlot bounds random-fill retries per population slot.
const defaultFillAttemptsPerSlot = 10000

// ManagerConfig parameterizes a population Manager. Grammar, Mapper and RNG
// are required; the remaining fields are validated but carry no implicit
// defaults here (the public facade applies run defaults).
type ManagerConfig struct {
	Grammar            *grammar.Grammar
	Mapper             *derive.Mapper
	RNG                *rand.Rand
	PopulationSize     int
	GenomeLength       int
	MutationProb       float64
	TruncationFraction float64
	Direction          Direction
	Selection          SelectionMode
	MaxFillAttempts    int
}

// Manager owns the live population, the novelty cache, the best-ever
// individual and the selection/replacement policy. It is not safe for
// concurrent use; one Manager belongs to one engine instance.
//
// Every stochastic decision consumes the single RNG stream in a fixed,
// documented order so that a seed reproduces a run exactly.
// Initialization draws each candidate's codons left to right. Replacement
// draws, per bred pair: parent A index, parent B index (two draws, without
// replacement), the crossover cut point, then for each child in order the
// mutation coin followed, on a hit, by the mutation locus and the new codon
// value; the child is mapped and admitted before the next child's draws.
// Random fill-in draws like initialization.
type Manager struct {
	cfg        ManagerConfig
	rng        *rand.Rand
	population []Individual
	novelty    noveltyCache
	best       Individual
	bestSet    bool
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Grammar == nil {
		return nil, fmt.Errorf("grammar is required")
	}
	if cfg.Mapper == nil {
		return nil, fmt.Errorf("mapper is required")
	}
	if cfg.RNG == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0, got %d", cfg.PopulationSize)
	}
	if cfg.GenomeLength <= 0 {
		return nil, fmt.Errorf("genome length must be > 0, got %d", cfg.GenomeLength)
	}
	if cfg.MutationProb < 0 || cfg.MutationProb > 1 {
		return nil, fmt.Errorf("mutation probability must be in [0, 1], got %g", cfg.MutationProb)
	}
	if cfg.TruncationFraction < 0 || cfg.TruncationFraction >= 1 {
		return nil, fmt.Errorf("truncation fraction must be in [0, 1), got %g", cfg.TruncationFraction)
	}
	switch cfg.Direction {
	case "":
		cfg.Direction = Maximize
	case Maximize, Minimize:
	default:
		return nil, fmt.Errorf("unknown direction: %s", cfg.Direction)
	}
	switch cfg.Selection {
	case "":
		cfg.Selection = SelectionTruncation
	case SelectionTruncation, SelectionDirect:
	default:
		return nil, fmt.Errorf("unknown selection mode: %s", cfg.Selection)
	}
	if cfg.MaxFillAttempts <= 0 {
		cfg.MaxFillAttempts = defaultFillAttemptsPerSlot * cfg.PopulationSize
	}

	return &Manager{
		cfg:     cfg,
		rng:     cfg.RNG,
		novelty: noveltyCache{},
	}, nil
}

// Initialize builds the first population from fresh random genomes and sets
// the best-ever reference to its first individual, fitness still unset. The
// novelty cache is not cleared: it spans every population of the run.
func (m *Manager) Initialize() error {
	m.population = m.population[:0]
	if err := m.fillRandom(); err != nil {
		return err
	}
	m.best = m.population[0].clone()
	m.bestSet = true
	return nil
}

// Population returns an independent snapshot of the live population in its
// meaningful order.
func (m *Manager) Population() []Individual {
	return cloneAll(m.population)
}

// Size returns the configured population size.
func (m *Manager) Size() int {
	return m.cfg.PopulationSize
}

// NoveltySize returns how many distinct phenotypes have ever been admitted.
func (m *Manager) NoveltySize() int {
	return len(m.novelty)
}

// AssignFitness writes one fitness value per individual, in population
// order, then rescans for the best-ever individual. Ties resolve in favor of
// the later-scanned individual.
func (m *Manager) AssignFitness(values []float64) error {
	if len(values) != len(m.population) {
		return fmt.Errorf("fitness count mismatch: got %d want %d", len(values), len(m.population))
	}
	for i := range m.population {
		m.population[i].Fitness = values[i]
		m.population[i].Evaluated = true
	}
	m.updateBest()
	return nil
}

// Best returns the best-ever individual and whether one exists yet.
func (m *Manager) Best() (Individual, bool) {
	if !m.bestSet {
		return Individual{}, false
	}
	return m.best.clone(), true
}

func (m *Manager) updateBest() {
	if !m.best.Evaluated {
		// The initial best-ever reference carries no fitness; adopt the
		// first individual's assigned value before comparing.
		m.best = m.population[0].clone()
	}
	for i := range m.population {
		if !m.population[i].Evaluated {
			continue
		}
		if m.cfg.Direction.betterOrEqual(m.population[i].Fitness, m.best.Fitness) {
			m.best = m.population[i].clone()
		}
	}
}

// NextGeneration replaces the population: rank (truncation mode only), seed
// the next population with a copy of the last-ordered individual, breed
// children from the selection pool through the mapping and novelty gates,
// and fall back to fresh random individuals once the breeding try budget of
// 2*popsize admitted-or-rejected children is spent.
func (m *Manager) NextGeneration() error {
	var pool []Individual
	switch m.cfg.Selection {
	case SelectionDirect:
		pool = directPool(m.population)
	default:
		sortForTruncation(m.population, m.cfg.Direction)
		pool = truncationPool(m.population, m.cfg.TruncationFraction)
	}

	next := make([]Individual, 0, m.cfg.PopulationSize)
	elite := m.population[len(m.population)-1].clone()
	next = append(next, elite)

	if len(pool) >= 2 {
		tries := 0
		for len(next) < m.cfg.PopulationSize && tries <= 2*m.cfg.PopulationSize {
			bred, err := m.breedPair(pool, &next, m.cfg.PopulationSize)
			if err != nil {
				return err
			}
			tries += bred
		}
	}

	m.population = next
	if len(m.population) < m.cfg.PopulationSize {
		if err := m.fillRandom(); err != nil {
			return err
		}
	}
	return nil
}

// breedPair samples two distinct parents, recombines and optionally mutates
// both children, and runs each through the admission gate. It returns how
// many children counted as tries.
func (m *Manager) breedPair(pool []Individual, next *[]Individual, target int) (int, error) {
	i := m.rng.Intn(len(pool))
	j := m.rng.Intn(len(pool) - 1)
	if j >= i {
		j++
	}
	parentA, parentB := pool[i], pool[j]

	child1, child2, err := genome.Crossover(m.rng, parentA.Genome, parentA.UsedCodons, parentB.Genome, parentB.UsedCodons)
	if err != nil {
		return 0, err
	}

	children := []struct {
		g    genome.Genome
		used int
	}{
		{child1, parentA.UsedCodons},
		{child2, parentB.UsedCodons},
	}

	tries := 0
	for _, child := range children {
		if len(*next) >= target {
			break
		}
		g := child.g
		if m.rng.Float64() < m.cfg.MutationProb && child.used > 0 {
			g, err = genome.Mutate(m.rng, g, child.used, m.cfg.Grammar.CodonModulus())
			if err != nil {
				return tries, err
			}
		}
		tries++
		ind, ok, err := m.admit(g)
		if err != nil {
			return tries, err
		}
		if ok {
			*next = append(*next, ind)
		}
	}
	return tries, nil
}

// admit maps a genome and applies the novelty gate. A mapping failure or a
// phenotype already seen in any population of this run rejects the
// candidate; a depth-bound violation is fatal and propagates.
func (m *Manager) admit(g genome.Genome) (Individual, bool, error) {
	res, err := m.cfg.Mapper.Map(g)
	if err != nil {
		if errors.Is(err, derive.ErrMappingFailure) {
			return Individual{}, false, nil
		}
		return Individual{}, false, err
	}
	if m.novelty.seen(res.Phenotype) {
		return Individual{}, false, nil
	}
	m.novelty.add(res.Phenotype)
	return Individual{Genome: g, Phenotype: res.Phenotype, UsedCodons: res.UsedCodons}, true, nil
}

// fillRandom appends fresh random individuals until the population reaches
// its configured size, within the fill-attempt budget.
func (m *Manager) fillRandom() error {
	attempts := 0
	for len(m.population) < m.cfg.PopulationSize {
		if attempts >= m.cfg.MaxFillAttempts {
			return fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, attempts)
		}
		attempts++
		g, err := genome.NewRandom(m.rng, m.cfg.GenomeLength, m.cfg.Grammar.CodonModulus())
		if err != nil {
			return err
		}
		ind, ok, err := m.admit(g)
		if err != nil {
			return err
		}
		if ok {
			m.population = append(m.population, ind)
		}
	}
	return nil
}
