package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"glossa/internal/storage"
	glossaapi "glossa/pkg/glossa"
)

const (
	defaultDBPath     = "glossa.db"
	defaultExportsDir = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "top":
		return runTop(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "grammar":
		return runGrammar(ctx, args[1:])
	case "evaluators":
		return runEvaluators(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := glossaapi.New(glossaapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := glossaapi.New(glossaapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config YAML path")
	grammarPath := fs.String("grammar", "", "grammar file path (YAML or JSON rule map)")
	evaluatorName := fs.String("evaluator", "textmatch", "evaluator: "+strings.Join(evaluatorNames(), "|"))
	target := fs.String("target", "", "evaluator target (textmatch target string)")
	population := fs.Int("pop", 50, "population size")
	generations := fs.Int("gens", 100, "generation count")
	genomeLength := fs.Int("genome-length", 100, "codons per random genome")
	maxDepth := fs.Int("max-depth", 10, "derivation recursion depth bound")
	mutationProb := fs.Float64("pmut", 0.1, "per-child mutation probability")
	truncation := fs.Float64("trunc", 0.5, "truncation fraction discarded before breeding")
	seed := fs.Int64("seed", 0, "rng seed (0 derives one from the clock)")
	goal := fs.Float64("goal", 0, "early-stop fitness goal (set explicitly to enable)")
	topCount := fs.Int("top-count", 10, "final phenotypes to persist")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	quiet := fs.Bool("quiet", false, "suppress per-generation log output")
	jsonLog := fs.Bool("json-log", false, "force JSON log output even on a TTY")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	var req glossaapi.RunRequest
	if *configPath != "" {
		loaded, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
		req = loaded
	}
	if setFlags["grammar"] || req.GrammarPath == "" {
		req.GrammarPath = *grammarPath
	}
	if setFlags["evaluator"] || req.Evaluator == "" {
		req.Evaluator = *evaluatorName
	}
	if setFlags["target"] {
		req.Target = *target
	}
	if setFlags["pop"] || req.Population == 0 {
		req.Population = *population
	}
	if setFlags["gens"] || req.Generations == 0 {
		req.Generations = *generations
	}
	if setFlags["genome-length"] || req.GenomeLength == 0 {
		req.GenomeLength = *genomeLength
	}
	if setFlags["max-depth"] || req.MaxDepth == 0 {
		req.MaxDepth = *maxDepth
	}
	if setFlags["pmut"] {
		req.MutationProb = mutationProb
	}
	if setFlags["trunc"] {
		req.Truncation = truncation
	}
	if setFlags["seed"] {
		req.Seed = *seed
	}
	if setFlags["goal"] {
		req.Goal = goal
	}
	if setFlags["top-count"] || req.TopCount == 0 {
		req.TopCount = *topCount
	}
	if req.GrammarPath == "" {
		return errors.New("run requires --grammar or a config with grammar_path")
	}

	logger, err := newLogger(*quiet, *jsonLog)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := glossaapi.New(glossaapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: defaultExportsDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run completed run_id=%s grammar=%s evaluator=%s pop=%d gens=%d seed=%d\n",
		summary.RunID, req.GrammarPath, req.Evaluator, req.Population, summary.Generations, summary.Seed)
	fmt.Printf("best_fitness=%.6f direction=%s goal_reached=%t\n", summary.BestFitness, summary.Direction, summary.GoalReached)
	fmt.Printf("best_phenotype=%s\n", summary.BestPhenotype)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := glossaapi.New(glossaapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, glossaapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		return printJSON(runs)
	}
	for _, r := range runs {
		fmt.Printf("run_id=%s created=%s grammar=%s evaluator=%s pop=%d gens=%d seed=%d best=%.6f\n",
			r.RunID, r.CreatedAtUTC, r.GrammarPath, r.Evaluator, r.Population, r.Generations, r.Seed, r.BestFitness)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show fitness history for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("fitness requires --run-id or --latest")
	}

	client, err := glossaapi.New(glossaapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, glossaapi.FitnessHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *jsonOut {
		return printJSON(history)
	}
	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("diagnostics requires --run-id or --latest")
	}

	client, err := glossaapi.New(glossaapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, glossaapi.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *jsonOut {
		return printJSON(diagnostics)
	}
	for _, d := range diagnostics {
		fmt.Printf("generation=%d best=%.6f mean=%.6f worst=%.6f best_ever=%.6f mean_used_codons=%.2f novelty_cache=%d\n",
			d.Generation, d.BestFitness, d.MeanFitness, d.WorstFitness, d.BestEverFitness, d.MeanUsedCodons, d.NoveltyCacheSize)
	}
	return nil
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show top phenotypes for the most recent run")
	limit := fs.Int("limit", 5, "max phenotypes to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit top phenotypes as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("top requires --run-id or --latest")
	}

	client, err := glossaapi.New(glossaapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	top, err := client.TopPhenotypes(ctx, glossaapi.TopPhenotypesRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(top) == 0 {
		fmt.Println("no top phenotypes")
		return nil
	}
	if *jsonOut {
		return printJSON(top)
	}
	for _, p := range top {
		fmt.Printf("rank=%d fitness=%.6f used_codons=%d phenotype=%s\n", p.Rank, p.Fitness, p.UsedCodons, p.Phenotype)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", defaultExportsDir, "export output directory")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := glossaapi.New(glossaapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, glossaapi.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s dir=%s\n", summary.RunID, summary.Directory)
	return nil
}

func runGrammar(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("grammar", flag.ContinueOnError)
	path := fs.String("path", "", "grammar file path")
	jsonOut := fs.Bool("json", false, "emit grammar summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("grammar requires --path")
	}

	client, err := glossaapi.New(glossaapi.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	info, err := client.InspectGrammar(*path)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(info)
	}
	fmt.Printf("start=%s codon_modulus=%d\n", info.Start, info.CodonModulus)
	fmt.Printf("nonterminals=%s\n", strings.Join(info.Nonterminals, " "))
	fmt.Printf("terminals=%s\n", strings.Join(info.Terminals, " "))
	if len(info.RecursiveNonterminals) > 0 {
		fmt.Printf("recursive=%s\n", strings.Join(info.RecursiveNonterminals, " "))
	}
	return nil
}

func runEvaluators(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("evaluators", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range evaluatorNames() {
		fmt.Println(name)
	}
	return nil
}

func evaluatorNames() []string {
	client, err := glossaapi.New(glossaapi.Options{StoreKind: "memory"})
	if err != nil {
		return nil
	}
	defer func() {
		_ = client.Close()
	}()
	return client.Evaluators()
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: glossactl <init|reset|run|runs|fitness|diagnostics|top|export|grammar|evaluators> [flags]", msg)
}
