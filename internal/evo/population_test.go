package evo

import (
	"errors"
	"math/rand"
	"testing"

	"glossa/internal/derive"
	"glossa/internal/grammar"
)

func binaryGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	g, err := grammar.Parse([]byte(`{"<e>": [["0"], ["1"], ["<e>", "<e>"]]}`))
	if err != nil {
		t.Fatalf("parse grammar: %v", err)
	}
	return g
}

func newTestManager(t *testing.T, g *grammar.Grammar, cfg ManagerConfig) *Manager {
	t.Helper()
	mapper, err := derive.NewMapper(g, 6)
	if err != nil {
		t.Fatalf("new mapper: %v", err)
	}
	cfg.Grammar = g
	cfg.Mapper = mapper
	if cfg.RNG == nil {
		cfg.RNG = rand.New(rand.NewSource(5))
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestInitializeBuildsDistinctPopulation(t *testing.T) {
	m := newTestManager(t, binaryGrammar(t), ManagerConfig{
		PopulationSize: 12,
		GenomeLength:   20,
		MutationProb:   0.1,
	})
	if err := m.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	pop := m.Population()
	if len(pop) != 12 {
		t.Fatalf("population size: got %d want 12", len(pop))
	}
	seen := map[string]struct{}{}
	for _, ind := range pop {
		if ind.Phenotype == "" {
			t.Fatal("admitted individual without phenotype")
		}
		if ind.UsedCodons < 1 || ind.UsedCodons > len(ind.Genome) {
			t.Fatalf("used codons %d outside [1, %d]", ind.UsedCodons, len(ind.Genome))
		}
		if _, dup := seen[ind.Phenotype]; dup {
			t.Fatalf("duplicate phenotype admitted: %q", ind.Phenotype)
		}
		seen[ind.Phenotype] = struct{}{}
	}

	best, ok := m.Best()
	if !ok {
		t.Fatal("best-ever should be set after initialization")
	}
	if best.Evaluated {
		t.Fatal("best-ever fitness should be unset after initialization")
	}
	if best.Phenotype != pop[0].Phenotype {
		t.Fatalf("best-ever should reference the first individual, got %q want %q", best.Phenotype, pop[0].Phenotype)
	}
}

func TestNoveltyConstraintIsRunGlobal(t *testing.T) {
	m := newTestManager(t, binaryGrammar(t), ManagerConfig{
		PopulationSize:     8,
		GenomeLength:       20,
		MutationProb:       0.2,
		TruncationFraction: 0.5,
	})
	if err := m.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	ever := map[string]struct{}{}
	for _, ind := range m.Population() {
		ever[ind.Phenotype] = struct{}{}
	}

	fitness := make([]float64, 8)
	for gen := 0; gen < 5; gen++ {
		for i := range fitness {
			fitness[i] = float64(i)
		}
		if err := m.AssignFitness(fitness); err != nil {
			t.Fatalf("assign fitness: %v", err)
		}
		prev := map[string]struct{}{}
		for _, ind := range m.Population() {
			prev[ind.Phenotype] = struct{}{}
		}
		if err := m.NextGeneration(); err != nil {
			t.Fatalf("next generation: %v", err)
		}

		inThisPop := map[string]struct{}{}
		for _, ind := range m.Population() {
			if _, dup := inThisPop[ind.Phenotype]; dup {
				t.Fatalf("gen %d: duplicate phenotype within population: %q", gen, ind.Phenotype)
			}
			inThisPop[ind.Phenotype] = struct{}{}

			_, carried := prev[ind.Phenotype]
			_, seenBefore := ever[ind.Phenotype]
			if seenBefore && !carried {
				t.Fatalf("gen %d: phenotype %q from an earlier generation was re-admitted", gen, ind.Phenotype)
			}
			ever[ind.Phenotype] = struct{}{}
		}
	}
	if m.NoveltySize() < len(ever)-1 {
		t.Fatalf("novelty cache size %d inconsistent with %d phenotypes seen", m.NoveltySize(), len(ever))
	}
}

func TestInitializeExhaustsFinitePhenotypeSpace(t *testing.T) {
	g, err := grammar.Parse([]byte(`{"<e>": [["0"], ["1"]]}`))
	if err != nil {
		t.Fatalf("parse grammar: %v", err)
	}
	m := newTestManager(t, g, ManagerConfig{
		PopulationSize:  5,
		GenomeLength:    10,
		MaxFillAttempts: 500,
	})
	if err := m.Initialize(); !errors.Is(err, ErrGenerationExhausted) {
		t.Fatalf("got err %v, want ErrGenerationExhausted", err)
	}
}

func TestBestEverTieBreakFavorsLaterIndividual(t *testing.T) {
	m := newTestManager(t, binaryGrammar(t), ManagerConfig{
		PopulationSize: 4,
		GenomeLength:   20,
	})
	if err := m.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	pop := m.Population()

	if err := m.AssignFitness([]float64{1, 2, 2, 0}); err != nil {
		t.Fatalf("assign fitness: %v", err)
	}
	best, ok := m.Best()
	if !ok || !best.Evaluated {
		t.Fatal("best-ever should be evaluated after fitness assignment")
	}
	if best.Fitness != 2 {
		t.Fatalf("best fitness: got %g want 2", best.Fitness)
	}
	if best.Phenotype != pop[2].Phenotype {
		t.Fatalf("tie should favor the later-scanned individual %q, got %q", pop[2].Phenotype, best.Phenotype)
	}
}

func TestBestEverMonotoneUnderMinimize(t *testing.T) {
	m := newTestManager(t, binaryGrammar(t), ManagerConfig{
		PopulationSize:     6,
		GenomeLength:       20,
		Direction:          Minimize,
		TruncationFraction: 0.5,
	})
	if err := m.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := m.AssignFitness([]float64{9, 4, 7, 6, 8, 5}); err != nil {
		t.Fatalf("assign fitness: %v", err)
	}
	best, _ := m.Best()
	if best.Fitness != 4 {
		t.Fatalf("best fitness: got %g want 4", best.Fitness)
	}
	if err := m.NextGeneration(); err != nil {
		t.Fatalf("next generation: %v", err)
	}

	// Worse values everywhere must not displace the best-ever.
	if err := m.AssignFitness([]float64{9, 9, 9, 9, 9, 9}); err != nil {
		t.Fatalf("assign fitness: %v", err)
	}
	best, _ = m.Best()
	if best.Fitness != 4 {
		t.Fatalf("best-ever worsened: got %g want 4", best.Fitness)
	}
}

func TestDegeneratePoolFallsBackToRandomFill(t *testing.T) {
	m := newTestManager(t, binaryGrammar(t), ManagerConfig{
		PopulationSize: 6,
		GenomeLength:   20,
		Selection:      SelectionDirect,
	})
	if err := m.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	// Exactly one positive-fitness individual: two distinct parents cannot
	// be sampled, so every non-elite slot comes from the random-fill path.
	if err := m.AssignFitness([]float64{0, 0, 1, 0, 0, 0}); err != nil {
		t.Fatalf("assign fitness: %v", err)
	}
	if err := m.NextGeneration(); err != nil {
		t.Fatalf("next generation: %v", err)
	}
	if got := len(m.Population()); got != 6 {
		t.Fatalf("population size after degenerate replacement: got %d want 6", got)
	}
}

func TestManagerConfigValidation(t *testing.T) {
	g := binaryGrammar(t)
	mapper, err := derive.NewMapper(g, 4)
	if err != nil {
		t.Fatalf("new mapper: %v", err)
	}
	base := ManagerConfig{
		Grammar:        g,
		Mapper:         mapper,
		RNG:            rand.New(rand.NewSource(1)),
		PopulationSize: 4,
		GenomeLength:   10,
	}

	cases := []struct {
		name   string
		mutate func(*ManagerConfig)
	}{
		{"missing grammar", func(c *ManagerConfig) { c.Grammar = nil }},
		{"missing mapper", func(c *ManagerConfig) { c.Mapper = nil }},
		{"missing rng", func(c *ManagerConfig) { c.RNG = nil }},
		{"zero population", func(c *ManagerConfig) { c.PopulationSize = 0 }},
		{"zero genome length", func(c *ManagerConfig) { c.GenomeLength = 0 }},
		{"mutation prob above one", func(c *ManagerConfig) { c.MutationProb = 1.5 }},
		{"truncation fraction one", func(c *ManagerConfig) { c.TruncationFraction = 1 }},
		{"unknown direction", func(c *ManagerConfig) { c.Direction = "sideways" }},
		{"unknown selection", func(c *ManagerConfig) { c.Selection = "roulette" }},
	}
	for _, tc := range cases {
		cfg := base
		tc.mutate(&cfg)
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
