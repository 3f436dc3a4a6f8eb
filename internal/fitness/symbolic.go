package fitness

import (
	"context"
	"math"

	"github.com/PaesslerAG/gval"

	"glossa/internal/evo"
)

// evalPenalty is the fitness charged to phenotypes that fail to parse or
// evaluate to a finite number. It keeps broken expressions selectable
// against, without aborting the run.
const evalPenalty = 1e9

// Sample is one (x, f(x)) point of the regression target.
type Sample struct {
	X    float64
	Want float64
}

// SymbolicRegression scores arithmetic-expression phenotypes in the
// variable x by mean absolute error against sampled target points. Lower is
// better.
type SymbolicRegression struct {
	lang    gval.Language
	samples []Sample
}

// NewSymbolicRegression builds the evaluator. With nil samples it targets
// x*x + x + 1 over 21 points in [-5, 5].
func NewSymbolicRegression(samples []Sample) *SymbolicRegression {
	if len(samples) == 0 {
		samples = make([]Sample, 0, 21)
		for i := -10; i <= 10; i++ {
			x := float64(i) / 2
			samples = append(samples, Sample{X: x, Want: x*x + x + 1})
		}
	}
	return &SymbolicRegression{lang: gval.Full(), samples: samples}
}

func (s *SymbolicRegression) Name() string {
	return "symbolic"
}

func (s *SymbolicRegression) Direction() evo.Direction {
	return evo.Minimize
}

func (s *SymbolicRegression) Evaluate(ctx context.Context, phenotype string) (float64, error) {
	eval, err := s.lang.NewEvaluable(phenotype)
	if err != nil {
		return evalPenalty, nil
	}
	total := 0.0
	for _, sample := range s.samples {
		got, err := eval.EvalFloat64(ctx, map[string]interface{}{"x": sample.X})
		if err != nil || math.IsNaN(got) || math.IsInf(got, 0) {
			return evalPenalty, nil
		}
		total += math.Abs(got - sample.Want)
	}
	return total / float64(len(s.samples)), nil
}
