package glossa

import (
	"errors"
	"time"

	"glossa/internal/evo"
	"glossa/internal/grammar"
)

// SessionConfig parameterizes an interactive session. Exactly one of
// GrammarPath and GrammarText must be set. Direction defaults to maximize;
// hosts scoring errors-to-minimize pass "minimize".
type SessionConfig struct {
	GrammarPath  string
	GrammarText  []byte
	Direction    string
	Population   int
	GenomeLength int
	MaxDepth     int
	MutationProb *float64
	Truncation   *float64
	Seed         int64
}

// Individual is the session view of one population member. Genome and
// UsedCodons let hosts inspect or persist genotypes; Fitness is only
// meaningful on individuals the host has scored itself.
type Individual struct {
	Genome     []int
	Phenotype  string
	UsedCodons int
	Fitness    float64
	Evaluated  bool
}

// Session exposes the ask/tell protocol to hosts that evaluate phenotypes
// externally: Init once, then alternate Ask and Tell. Fitness values passed
// to Tell must follow the order of the preceding Ask. A Session is not safe
// for concurrent use.
type Session struct {
	engine *evo.Engine
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.GrammarPath != "" && cfg.GrammarText != nil {
		return nil, errors.New("use either grammar path or grammar text")
	}
	if cfg.GrammarPath == "" && cfg.GrammarText == nil {
		return nil, errors.New("grammar path or grammar text is required")
	}
	if cfg.Population <= 0 {
		cfg.Population = defaultPopulation
	}
	if cfg.GenomeLength <= 0 {
		cfg.GenomeLength = defaultGenomeLength
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	mutationProb := defaultMutationProb
	if cfg.MutationProb != nil {
		mutationProb = *cfg.MutationProb
	}
	truncation := defaultTruncation
	if cfg.Truncation != nil {
		truncation = *cfg.Truncation
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	var g *grammar.Grammar
	var err error
	if cfg.GrammarPath != "" {
		g, err = grammar.ParseFile(cfg.GrammarPath)
	} else {
		g, err = grammar.Parse(cfg.GrammarText)
	}
	if err != nil {
		return nil, err
	}

	engine, err := evo.New(evo.Config{
		Grammar:            g,
		PopulationSize:     cfg.Population,
		GenomeLength:       cfg.GenomeLength,
		MaxDepth:           cfg.MaxDepth,
		MutationProb:       mutationProb,
		TruncationFraction: truncation,
		Direction:          evo.Direction(cfg.Direction),
		Seed:               cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	return &Session{engine: engine}, nil
}

// Init builds the initial population.
func (s *Session) Init() error {
	return s.engine.Init()
}

// Ask returns the current population in evaluation order. It is idempotent
// between tells.
func (s *Session) Ask() ([]Individual, error) {
	population, err := s.engine.Ask()
	if err != nil {
		return nil, err
	}
	out := make([]Individual, 0, len(population))
	for _, ind := range population {
		out = append(out, Individual{
			Genome:     append([]int(nil), ind.Genome...),
			Phenotype:  ind.Phenotype,
			UsedCodons: ind.UsedCodons,
			Fitness:    ind.Fitness,
			Evaluated:  ind.Evaluated,
		})
	}
	return out, nil
}

// Tell reports one fitness value per individual of the last Ask and advances
// the session by one generation.
func (s *Session) Tell(fitness []float64) error {
	return s.engine.Tell(fitness)
}

// Best returns the best individual told so far and whether one exists.
func (s *Session) Best() (Individual, bool) {
	best, ok := s.engine.Best()
	if !ok {
		return Individual{}, false
	}
	return Individual{
		Genome:     append([]int(nil), best.Genome...),
		Phenotype:  best.Phenotype,
		UsedCodons: best.UsedCodons,
		Fitness:    best.Fitness,
		Evaluated:  best.Evaluated,
	}, true
}

// Generation returns how many tell rounds have completed.
func (s *Session) Generation() int {
	return s.engine.Generation()
}

// NoveltySize returns the size of the session's novelty cache.
func (s *Session) NoveltySize() int {
	return s.engine.NoveltySize()
}
