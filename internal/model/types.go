// Package model holds the serializable record types shared by storage,
// artifact export and the public facade.
package model

// RunRecord is the stored metadata of one completed autonomous run.
type RunRecord struct {
	RunID        string  `json:"run_id"`
	CreatedAtUTC string  `json:"created_at_utc"`
	GrammarPath  string  `json:"grammar_path"`
	Evaluator    string  `json:"evaluator"`
	Direction    string  `json:"direction"`
	Population   int     `json:"population"`
	Generations  int     `json:"generations"`
	GenomeLength int     `json:"genome_length"`
	MaxDepth     int     `json:"max_depth"`
	MutationProb float64 `json:"mutation_prob"`
	Truncation   float64 `json:"truncation"`
	Seed         int64   `json:"seed"`
	BestFitness  float64 `json:"best_fitness"`
	BestPhenotype string `json:"best_phenotype"`
}

// GenerationDiagnostics summarizes one evaluated generation before its
// population was replaced.
type GenerationDiagnostics struct {
	Generation       int     `json:"generation"`
	BestFitness      float64 `json:"best_fitness"`
	MeanFitness      float64 `json:"mean_fitness"`
	WorstFitness     float64 `json:"worst_fitness"`
	BestEverFitness  float64 `json:"best_ever_fitness"`
	MeanUsedCodons   float64 `json:"mean_used_codons"`
	NoveltyCacheSize int     `json:"novelty_cache_size"`
}

// TopPhenotypeRecord is one ranked phenotype from a run's final generation.
type TopPhenotypeRecord struct {
	Rank       int     `json:"rank"`
	Phenotype  string  `json:"phenotype"`
	Fitness    float64 `json:"fitness"`
	UsedCodons int     `json:"used_codons"`
	Genome     []int   `json:"genome"`
}
