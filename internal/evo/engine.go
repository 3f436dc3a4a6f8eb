package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"glossa/internal/derive"
	"glossa/internal/grammar"
	"glossa/internal/model"
)

// ErrProtocolViolation reports an ask/tell call made out of order or with a
// mismatched fitness count. The engine's state is unchanged by a rejected
// call.
var ErrProtocolViolation = errors.New("protocol violation")

// Config parameterizes an Engine. Grammar is required. Without an Evaluator
// the engine serves the interactive protocol only: Ask still returns real
// individuals, fitness stays unset, and the direction defaults to maximize
// until Tell supplies real values.
type Config struct {
	Grammar            *grammar.Grammar
	Evaluator          Evaluator
	PopulationSize     int
	Generations        int
	GenomeLength       int
	MaxDepth           int
	MutationProb       float64
	TruncationFraction float64
	Direction          Direction
	Selection          SelectionMode
	Goal               *float64
	Seed               int64
	MaxFillAttempts    int
}

// RunResult is the outcome of an autonomous run.
type RunResult struct {
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
	Best             Individual
	TopFinal         []Individual
	Generations      int
	GoalReached      bool
}

// Engine drives one evolutionary run through the ask/tell protocol. All
// state, including the seeded random stream, is private to the instance;
// the engine is synchronous and not safe for concurrent use.
//
// The protocol moves Created -> Initialized -> (EvaluationPending <->
// Replaced)*: Init builds the first population, Ask exposes the current
// population for external evaluation, and Tell returns fitness values in
// Ask order, triggering selection and replacement.
type Engine struct {
	cfg         Config
	manager     *Manager
	initialized bool
	asked       bool
	generation  int
}

func New(cfg Config) (*Engine, error) {
	if cfg.Grammar == nil {
		return nil, fmt.Errorf("grammar is required")
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must be >= 0, got %d", cfg.MaxDepth)
	}
	if cfg.Direction == "" {
		if cfg.Evaluator != nil {
			cfg.Direction = cfg.Evaluator.Direction()
		} else {
			cfg.Direction = Maximize
		}
	}
	if cfg.Selection == "" {
		if cfg.Evaluator != nil {
			cfg.Selection = SelectionTruncation
		} else {
			cfg.Selection = SelectionDirect
		}
	}

	mapper, err := derive.NewMapper(cfg.Grammar, cfg.MaxDepth)
	if err != nil {
		return nil, err
	}
	manager, err := NewManager(ManagerConfig{
		Grammar:            cfg.Grammar,
		Mapper:             mapper,
		RNG:                rand.New(rand.NewSource(cfg.Seed)),
		PopulationSize:     cfg.PopulationSize,
		GenomeLength:       cfg.GenomeLength,
		MutationProb:       cfg.MutationProb,
		TruncationFraction: cfg.TruncationFraction,
		Direction:          cfg.Direction,
		Selection:          cfg.Selection,
		MaxFillAttempts:    cfg.MaxFillAttempts,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{cfg: cfg, manager: manager}, nil
}

// Direction returns the optimization direction the engine resolved at
// construction.
func (e *Engine) Direction() Direction {
	return e.manager.cfg.Direction
}

// Init builds the initial population and the best-ever reference.
func (e *Engine) Init() error {
	if e.initialized {
		return fmt.Errorf("%w: engine already initialized", ErrProtocolViolation)
	}
	if err := e.manager.Initialize(); err != nil {
		return err
	}
	e.initialized = true
	return nil
}

// Ask returns a read view of the current population, in the order fitness
// values must later be returned in. It has no side effects beyond arming
// Tell: repeated calls return identical content.
func (e *Engine) Ask() ([]Individual, error) {
	if !e.initialized {
		return nil, fmt.Errorf("%w: ask before init", ErrProtocolViolation)
	}
	e.asked = true
	return e.manager.Population(), nil
}

// Tell assigns one fitness value per individual in the order of the most
// recent Ask, updates the best-ever individual, and replaces the population.
// Out-of-order calls and mismatched lengths are rejected atomically.
func (e *Engine) Tell(fitness []float64) error {
	if !e.initialized {
		return fmt.Errorf("%w: tell before init", ErrProtocolViolation)
	}
	if !e.asked {
		return fmt.Errorf("%w: tell without a preceding ask", ErrProtocolViolation)
	}
	if len(fitness) != e.manager.Size() {
		return fmt.Errorf("%w: fitness count mismatch: got %d want %d", ErrProtocolViolation, len(fitness), e.manager.Size())
	}

	if err := e.manager.AssignFitness(fitness); err != nil {
		return err
	}
	if err := e.manager.NextGeneration(); err != nil {
		return err
	}
	e.asked = false
	e.generation++
	return nil
}

// Best returns the best-ever individual and whether one exists.
func (e *Engine) Best() (Individual, bool) {
	return e.manager.Best()
}

// Generation returns how many tell rounds have completed.
func (e *Engine) Generation() int {
	return e.generation
}

// NoveltySize returns the size of the run-global novelty cache.
func (e *Engine) NoveltySize() int {
	return e.manager.NoveltySize()
}

// Run is the autonomous driver: for the configured number of generations it
// asks, scores every phenotype through the Evaluator, and tells the results
// back, once per generation. The optional observe hook receives each
// generation's diagnostics. A configured goal stops the run early once the
// best-ever fitness reaches it.
func (e *Engine) Run(ctx context.Context, observe func(model.GenerationDiagnostics)) (RunResult, error) {
	if e.cfg.Evaluator == nil {
		return RunResult{}, fmt.Errorf("evaluator is required for autonomous runs")
	}
	if e.cfg.Generations <= 0 {
		return RunResult{}, fmt.Errorf("generations must be > 0, got %d", e.cfg.Generations)
	}
	if !e.initialized {
		if err := e.Init(); err != nil {
			return RunResult{}, err
		}
	}

	result := RunResult{
		BestByGeneration: make([]float64, 0, e.cfg.Generations),
		Diagnostics:      make([]model.GenerationDiagnostics, 0, e.cfg.Generations),
	}
	for gen := 0; gen < e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		population, err := e.Ask()
		if err != nil {
			return RunResult{}, err
		}
		fitness := make([]float64, len(population))
		for i := range population {
			value, err := e.cfg.Evaluator.Evaluate(ctx, population[i].Phenotype)
			if err != nil {
				return RunResult{}, fmt.Errorf("evaluate phenotype %q: %w", population[i].Phenotype, err)
			}
			fitness[i] = value
			population[i].Fitness = value
			population[i].Evaluated = true
		}

		if err := e.Tell(fitness); err != nil {
			return RunResult{}, err
		}

		best, _ := e.Best()
		diag := summarizeGeneration(gen+1, population, best.Fitness, e.Direction(), e.NoveltySize())
		result.BestByGeneration = append(result.BestByGeneration, best.Fitness)
		result.Diagnostics = append(result.Diagnostics, diag)
		result.Best = best
		result.TopFinal = rankBestFirst(population, e.Direction())
		result.Generations = gen + 1
		if observe != nil {
			observe(diag)
		}

		if e.cfg.Goal != nil && e.Direction().betterOrEqual(best.Fitness, *e.cfg.Goal) {
			result.GoalReached = true
			break
		}
	}
	return result, nil
}

func summarizeGeneration(generation int, evaluated []Individual, bestEver float64, direction Direction, noveltySize int) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{
		Generation:       generation,
		BestEverFitness:  bestEver,
		NoveltyCacheSize: noveltySize,
	}
	if len(evaluated) == 0 {
		return diag
	}
	diag.BestFitness = evaluated[0].Fitness
	diag.WorstFitness = evaluated[0].Fitness
	total := 0.0
	usedTotal := 0
	for _, ind := range evaluated {
		total += ind.Fitness
		usedTotal += ind.UsedCodons
		if direction.betterOrEqual(ind.Fitness, diag.BestFitness) {
			diag.BestFitness = ind.Fitness
		}
		if direction.betterOrEqual(diag.WorstFitness, ind.Fitness) {
			diag.WorstFitness = ind.Fitness
		}
	}
	diag.MeanFitness = total / float64(len(evaluated))
	diag.MeanUsedCodons = float64(usedTotal) / float64(len(evaluated))
	return diag
}

// rankBestFirst returns an independent copy of the evaluated individuals
// ordered best to worst under the direction.
func rankBestFirst(evaluated []Individual, direction Direction) []Individual {
	out := cloneAll(evaluated)
	sortForTruncation(out, direction)
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
