package fitness

import (
	"context"

	"glossa/internal/evo"
)

const defaultTarget = "hello world"

// TextMatch scores phenotypes by positional character agreement with a
// target string, normalized to [0, 1]. A score of 1 is an exact match.
type TextMatch struct {
	target string
}

func NewTextMatch(target string) *TextMatch {
	if target == "" {
		target = defaultTarget
	}
	return &TextMatch{target: target}
}

func (m *TextMatch) Name() string {
	return "textmatch"
}

func (m *TextMatch) Direction() evo.Direction {
	return evo.Maximize
}

func (m *TextMatch) Evaluate(_ context.Context, phenotype string) (float64, error) {
	longer := len(m.target)
	if len(phenotype) > longer {
		longer = len(phenotype)
	}
	if longer == 0 {
		return 1, nil
	}
	matches := 0
	for i := 0; i < len(m.target) && i < len(phenotype); i++ {
		if m.target[i] == phenotype[i] {
			matches++
		}
	}
	return float64(matches) / float64(longer), nil
}
