// Package glossa is the public surface of the grammatical evolution engine:
// a Client for autonomous runs with persisted history, and a Session for
// hosts that evaluate phenotypes themselves through the ask/tell protocol.
package glossa

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"glossa/internal/evo"
	"glossa/internal/fitness"
	"glossa/internal/grammar"
	"glossa/internal/model"
	"glossa/internal/stats"
	"glossa/internal/storage"
)

const (
	defaultDBPath       = "glossa.db"
	defaultExportsDir   = "exports"
	defaultEvaluator    = "textmatch"
	defaultPopulation   = 50
	defaultGenerations  = 100
	defaultGenomeLength = 100
	defaultMaxDepth     = 10
	defaultMutationProb = 0.1
	defaultTruncation   = 0.5
	defaultTopCount     = 10
)

// Re-exported sentinels so callers can classify failures without reaching
// into internal packages.
var (
	ErrInvalidGrammar      = grammar.ErrInvalidGrammar
	ErrGenerationExhausted = evo.ErrGenerationExhausted
	ErrProtocolViolation   = evo.ErrProtocolViolation
)

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
	Logger     *zap.Logger
}

type Client struct {
	store  storage.Store
	logger *zap.Logger

	exportsDir  string
	storeInited bool
}

type RunRequest struct {
	GrammarPath  string
	Evaluator    string
	Target       string
	Population   int
	Generations  int
	GenomeLength int
	MaxDepth     int
	MutationProb *float64
	Truncation   *float64
	Seed         int64
	Goal         *float64
	TopCount     int
}

type RunSummary struct {
	RunID            string
	BestPhenotype    string
	BestFitness      float64
	Direction        string
	Generations      int
	GoalReached      bool
	Seed             int64
	BestByGeneration []float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID         string
	CreatedAtUTC  string
	GrammarPath   string
	Evaluator     string
	Direction     string
	Population    int
	Generations   int
	Seed          int64
	BestFitness   float64
	BestPhenotype string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TopPhenotypesRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

// GrammarSummary is the inspection view of a parsed grammar file.
type GrammarSummary struct {
	Start                 string
	CodonModulus          int
	Nonterminals          []string
	Terminals             []string
	RecursiveNonterminals []string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		logger:     logger,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

// Reset clears all persisted run history.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.ensureStore(ctx); err != nil {
		return err
	}
	return c.store.Reset(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.GrammarPath == "" {
		return RunSummary{}, errors.New("grammar path is required")
	}
	if req.Evaluator == "" {
		req.Evaluator = defaultEvaluator
	}
	if req.Population <= 0 {
		req.Population = defaultPopulation
	}
	if req.Generations <= 0 {
		req.Generations = defaultGenerations
	}
	if req.GenomeLength <= 0 {
		req.GenomeLength = defaultGenomeLength
	}
	if req.MaxDepth <= 0 {
		req.MaxDepth = defaultMaxDepth
	}
	mutationProb := defaultMutationProb
	if req.MutationProb != nil {
		mutationProb = *req.MutationProb
	}
	truncation := defaultTruncation
	if req.Truncation != nil {
		truncation = *req.Truncation
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	if req.TopCount <= 0 {
		req.TopCount = defaultTopCount
	}

	g, err := grammar.ParseFile(req.GrammarPath)
	if err != nil {
		return RunSummary{}, err
	}
	evaluator, err := fitness.Resolve(req.Evaluator, req.Target)
	if err != nil {
		return RunSummary{}, err
	}
	engine, err := evo.New(evo.Config{
		Grammar:            g,
		Evaluator:          evaluator,
		PopulationSize:     req.Population,
		Generations:        req.Generations,
		GenomeLength:       req.GenomeLength,
		MaxDepth:           req.MaxDepth,
		MutationProb:       mutationProb,
		TruncationFraction: truncation,
		Goal:               req.Goal,
		Seed:               req.Seed,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	now := time.Now().UTC()
	logger := c.logger.With(zap.String("run_id", runID))
	logger.Info("run starting",
		zap.String("grammar", req.GrammarPath),
		zap.String("evaluator", evaluator.Name()),
		zap.String("direction", string(engine.Direction())),
		zap.Int("population", req.Population),
		zap.Int("generations", req.Generations),
		zap.Int64("seed", req.Seed),
	)

	result, err := engine.Run(ctx, func(diag model.GenerationDiagnostics) {
		logger.Info("generation complete",
			zap.Int("generation", diag.Generation),
			zap.Float64("best", diag.BestFitness),
			zap.Float64("mean", diag.MeanFitness),
			zap.Float64("best_ever", diag.BestEverFitness),
			zap.Int("novelty_cache", diag.NoveltyCacheSize),
		)
	})
	if err != nil {
		return RunSummary{}, err
	}

	record := model.RunRecord{
		RunID:         runID,
		CreatedAtUTC:  now.Format(time.RFC3339Nano),
		GrammarPath:   req.GrammarPath,
		Evaluator:     evaluator.Name(),
		Direction:     string(engine.Direction()),
		Population:    req.Population,
		Generations:   result.Generations,
		GenomeLength:  req.GenomeLength,
		MaxDepth:      req.MaxDepth,
		MutationProb:  mutationProb,
		Truncation:    truncation,
		Seed:          req.Seed,
		BestFitness:   result.Best.Fitness,
		BestPhenotype: result.Best.Phenotype,
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveDiagnostics(ctx, runID, result.Diagnostics); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveTopPhenotypes(ctx, runID, topRecords(result.TopFinal, req.TopCount)); err != nil {
		return RunSummary{}, err
	}

	logger.Info("run finished",
		zap.Float64("best_fitness", result.Best.Fitness),
		zap.String("best_phenotype", result.Best.Phenotype),
		zap.Int("generations", result.Generations),
		zap.Bool("goal_reached", result.GoalReached),
	)

	return RunSummary{
		RunID:            runID,
		BestPhenotype:    result.Best.Phenotype,
		BestFitness:      result.Best.Fitness,
		Direction:        string(engine.Direction()),
		Generations:      result.Generations,
		GoalReached:      result.GoalReached,
		Seed:             req.Seed,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.ListRuns(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]RunItem, 0, len(records))
	for _, r := range records {
		out = append(out, RunItem{
			RunID:         r.RunID,
			CreatedAtUTC:  r.CreatedAtUTC,
			GrammarPath:   r.GrammarPath,
			Evaluator:     r.Evaluator,
			Direction:     r.Direction,
			Population:    r.Population,
			Generations:   r.Generations,
			Seed:          r.Seed,
			BestFitness:   r.BestFitness,
			BestPhenotype: r.BestPhenotype,
		})
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	diagnostics, ok, err := c.store.GetDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) TopPhenotypes(ctx context.Context, req TopPhenotypesRequest) ([]model.TopPhenotypeRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	top, ok, err := c.store.GetTopPhenotypes(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("top phenotypes not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(top) > req.Limit {
		top = top[:req.Limit]
	}
	out := make([]model.TopPhenotypeRecord, len(top))
	copy(out, top)
	return out, nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("run not found: %s", runID)
	}
	history, _, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	diagnostics, _, err := c.store.GetDiagnostics(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	top, _, err := c.store.GetTopPhenotypes(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}

	dir, err := stats.WriteRunArtifacts(req.OutDir, stats.RunArtifacts{
		Run:         run,
		History:     history,
		Diagnostics: diagnostics,
		Top:         top,
	})
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(dir)}, nil
}

// InspectGrammar parses and validates a grammar file without starting a run.
func (c *Client) InspectGrammar(path string) (GrammarSummary, error) {
	g, err := grammar.ParseFile(path)
	if err != nil {
		return GrammarSummary{}, err
	}
	return GrammarSummary{
		Start:                 string(g.Start()),
		CodonModulus:          g.CodonModulus(),
		Nonterminals:          symbolStrings(g.Nonterminals()),
		Terminals:             symbolStrings(g.Terminals()),
		RecursiveNonterminals: symbolStrings(g.RecursiveNonterminals()),
	}, nil
}

// Evaluators lists the named evaluators available to Run.
func (c *Client) Evaluators() []string {
	return fitness.Names()
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.storeInited {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.storeInited = true
	return nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return "", errors.New("run id or latest is required")
	}
	if err := c.ensureStore(ctx); err != nil {
		return "", err
	}
	if runID != "" {
		return runID, nil
	}

	records, err := c.store.ListRuns(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", errors.New("no runs available")
	}
	return records[0].RunID, nil
}

func topRecords(ranked []evo.Individual, limit int) []model.TopPhenotypeRecord {
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]model.TopPhenotypeRecord, 0, len(ranked))
	for i, ind := range ranked {
		out = append(out, model.TopPhenotypeRecord{
			Rank:       i + 1,
			Phenotype:  ind.Phenotype,
			Fitness:    ind.Fitness,
			UsedCodons: ind.UsedCodons,
			Genome:     append([]int(nil), ind.Genome...),
		})
	}
	return out
}

func symbolStrings(symbols []grammar.Symbol) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, string(s))
	}
	return out
}
