package fitness

import (
	"context"
	"math"
	"testing"

	"glossa/internal/evo"
)

func TestResolveKnownNames(t *testing.T) {
	for _, name := range Names() {
		ev, err := Resolve(name, "")
		if err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
		if ev.Name() != name {
			t.Fatalf("name mismatch: got %s want %s", ev.Name(), name)
		}
	}
	if _, err := Resolve("nope", ""); err == nil {
		t.Fatal("expected error for unknown evaluator")
	}
}

func TestTextMatchScoring(t *testing.T) {
	m := NewTextMatch("abcd")
	if m.Direction() != evo.Maximize {
		t.Fatalf("direction: got %s", m.Direction())
	}

	cases := []struct {
		phenotype string
		want      float64
	}{
		{"abcd", 1},
		{"abXd", 0.75},
		{"ab", 0.5},
		{"abcdef", 4.0 / 6.0},
		{"zzzz", 0},
	}
	for _, tc := range cases {
		got, err := m.Evaluate(context.Background(), tc.phenotype)
		if err != nil {
			t.Fatalf("evaluate %q: %v", tc.phenotype, err)
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("evaluate %q: got %g want %g", tc.phenotype, got, tc.want)
		}
	}
}

func TestSymbolicRegressionExactExpression(t *testing.T) {
	s := NewSymbolicRegression([]Sample{{X: -1, Want: 0}, {X: 0, Want: 1}, {X: 2, Want: 3}})
	if s.Direction() != evo.Minimize {
		t.Fatalf("direction: got %s", s.Direction())
	}

	got, err := s.Evaluate(context.Background(), "x + 1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != 0 {
		t.Fatalf("exact expression error: got %g want 0", got)
	}

	worse, err := s.Evaluate(context.Background(), "x")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if worse <= got {
		t.Fatalf("wrong expression should score worse, got %g", worse)
	}
}

func TestSymbolicRegressionPenalizesBrokenPhenotypes(t *testing.T) {
	s := NewSymbolicRegression(nil)
	for _, phenotype := range []string{"(x +", "x / 0 / 0 * 0"} {
		got, err := s.Evaluate(context.Background(), phenotype)
		if err != nil {
			t.Fatalf("evaluate %q: %v", phenotype, err)
		}
		if got != evalPenalty {
			t.Fatalf("evaluate %q: got %g want penalty", phenotype, got)
		}
	}
}
