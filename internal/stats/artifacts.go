// Package stats exports run artifacts as files for offline inspection.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"glossa/internal/model"
)

// RunArtifacts bundles everything recorded about one run.
type RunArtifacts struct {
	Run         model.RunRecord
	History     []float64
	Diagnostics []model.GenerationDiagnostics
	Top         []model.TopPhenotypeRecord
}

// WriteRunArtifacts writes the run's artifact files under dir/<runID>/ and
// returns the directory it created: run.json, fitness_history.csv,
// diagnostics.csv and top_phenotypes.json.
func WriteRunArtifacts(dir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}
	outDir := filepath.Join(dir, artifacts.Run.RunID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(outDir, "run.json"), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeFitnessCSV(filepath.Join(outDir, "fitness_history.csv"), artifacts.History); err != nil {
		return "", err
	}
	if err := writeDiagnosticsCSV(filepath.Join(outDir, "diagnostics.csv"), artifacts.Diagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(outDir, "top_phenotypes.json"), artifacts.Top); err != nil {
		return "", err
	}
	return outDir, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeFitnessCSV(path string, history []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"generation", "best_ever_fitness"}); err != nil {
		return err
	}
	for i, value := range history {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(value, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeDiagnosticsCSV(path string, diagnostics []model.GenerationDiagnostics) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"generation", "best_fitness", "mean_fitness", "worst_fitness",
		"best_ever_fitness", "mean_used_codons", "novelty_cache_size",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, d := range diagnostics {
		record := []string{
			strconv.Itoa(d.Generation),
			strconv.FormatFloat(d.BestFitness, 'g', -1, 64),
			strconv.FormatFloat(d.MeanFitness, 'g', -1, 64),
			strconv.FormatFloat(d.WorstFitness, 'g', -1, 64),
			strconv.FormatFloat(d.BestEverFitness, 'g', -1, 64),
			strconv.FormatFloat(d.MeanUsedCodons, 'g', -1, 64),
			strconv.Itoa(d.NoveltyCacheSize),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
