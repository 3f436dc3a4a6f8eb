package genome

import (
	"math/rand"
	"testing"
)

func TestNewRandomRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g, err := NewRandom(rng, 200, 12)
	if err != nil {
		t.Fatalf("new random: %v", err)
	}
	if len(g) != 200 {
		t.Fatalf("length: got %d want 200", len(g))
	}
	for i, codon := range g {
		if codon < 0 || codon >= 12 {
			t.Fatalf("codon %d at %d outside [0, 12)", codon, i)
		}
	}
}

func TestMutateTouchesExactlyOneLocus(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	original := Genome{3, 1, 4, 1, 5, 9, 2, 6}
	used := 5

	for trial := 0; trial < 50; trial++ {
		mutated, err := Mutate(rng, original, used, 10)
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
		if len(mutated) != len(original) {
			t.Fatalf("length changed: got %d want %d", len(mutated), len(original))
		}
		changed := 0
		for i := range original {
			if mutated[i] != original[i] {
				changed++
				if i >= used {
					t.Fatalf("mutation locus %d outside used region [0, %d)", i, used)
				}
			}
		}
		if changed > 1 {
			t.Fatalf("mutation touched %d loci", changed)
		}
	}
}

func TestCrossoverSymmetry(t *testing.T) {
	a := Genome{0, 1, 2, 3, 4, 5}
	b := Genome{9, 8, 7, 6, 5, 4}

	c1, c2, err := Crossover(rand.New(rand.NewSource(3)), a, 4, b, 6)
	if err != nil {
		t.Fatalf("crossover: %v", err)
	}
	if len(c1) != len(a) || len(c2) != len(a) {
		t.Fatalf("child lengths: got %d, %d want %d", len(c1), len(c2), len(a))
	}

	// Swapping the parent roles with the same cut draw reproduces the
	// opposite children.
	d1, d2, err := Crossover(rand.New(rand.NewSource(3)), b, 6, a, 4)
	if err != nil {
		t.Fatalf("crossover swapped: %v", err)
	}
	for i := range c1 {
		if c1[i] != d2[i] || c2[i] != d1[i] {
			t.Fatalf("swapped crossover diverged at %d: %v/%v vs %v/%v", i, c1, c2, d1, d2)
		}
	}

	// Every position comes from one parent, split at a single cut.
	cut := -1
	for i := range c1 {
		if c1[i] == a[i] && c2[i] == b[i] {
			continue
		}
		if c1[i] == b[i] && c2[i] == a[i] {
			if cut == -1 {
				cut = i
			}
			continue
		}
		t.Fatalf("position %d belongs to neither parent", i)
	}
	if cut < 0 || cut >= 4 {
		t.Fatalf("cut point %d outside [0, min used)", cut)
	}
}

func TestCrossoverZeroBoundCopiesParents(t *testing.T) {
	a := Genome{1, 2, 3}
	b := Genome{4, 5, 6}
	c1, c2, err := Crossover(rand.New(rand.NewSource(1)), a, 0, b, 3)
	if err != nil {
		t.Fatalf("crossover: %v", err)
	}
	for i := range a {
		if c1[i] != b[i] || c2[i] != a[i] {
			t.Fatalf("zero bound children must copy opposite parents, got %v %v", c1, c2)
		}
	}
}

func TestOperatorValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := NewRandom(nil, 4, 2); err == nil {
		t.Fatal("expected error for nil rng")
	}
	if _, err := NewRandom(rng, 0, 2); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := Mutate(rng, Genome{1, 2}, 0, 2); err == nil {
		t.Fatal("expected error for zero used codons")
	}
	if _, err := Mutate(rng, Genome{1, 2}, 3, 2); err == nil {
		t.Fatal("expected error for used codons beyond length")
	}
	if _, _, err := Crossover(rng, Genome{1}, 1, Genome{1, 2}, 2); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}
