package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	glossaapi "glossa/pkg/glossa"
)

// runConfig is the YAML shape accepted by `glossactl run --config`. Fields
// left out of the file fall back to flag or library defaults; unknown keys
// are rejected.
type runConfig struct {
	GrammarPath  string   `yaml:"grammar_path"`
	Evaluator    string   `yaml:"evaluator"`
	Target       string   `yaml:"target"`
	Population   int      `yaml:"population"`
	Generations  int      `yaml:"generations"`
	GenomeLength int      `yaml:"genome_length"`
	MaxDepth     int      `yaml:"max_depth"`
	MutationProb *float64 `yaml:"mutation_prob"`
	Truncation   *float64 `yaml:"truncation"`
	Seed         int64    `yaml:"seed"`
	Goal         *float64 `yaml:"goal"`
	TopCount     int      `yaml:"top_count"`
}

func loadRunRequestFromConfig(path string) (glossaapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return glossaapi.RunRequest{}, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg runConfig
	if err := dec.Decode(&cfg); err != nil {
		return glossaapi.RunRequest{}, fmt.Errorf("parse run config %s: %w", path, err)
	}
	if cfg.Population < 0 {
		return glossaapi.RunRequest{}, fmt.Errorf("run config %s: population must be >= 0", path)
	}
	if cfg.Generations < 0 {
		return glossaapi.RunRequest{}, fmt.Errorf("run config %s: generations must be >= 0", path)
	}

	return glossaapi.RunRequest{
		GrammarPath:  cfg.GrammarPath,
		Evaluator:    cfg.Evaluator,
		Target:       cfg.Target,
		Population:   cfg.Population,
		Generations:  cfg.Generations,
		GenomeLength: cfg.GenomeLength,
		MaxDepth:     cfg.MaxDepth,
		MutationProb: cfg.MutationProb,
		Truncation:   cfg.Truncation,
		Seed:         cfg.Seed,
		Goal:         cfg.Goal,
		TopCount:     cfg.TopCount,
	}, nil
}
