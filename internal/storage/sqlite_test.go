//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"glossa/internal/model"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "glossa.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}()

	run := model.RunRecord{
		RunID:        "run-1",
		CreatedAtUTC: "2026-01-02T03:04:05Z",
		Evaluator:    "symbolic",
		Direction:    "minimize",
		Population:   20,
		BestFitness:  0.25,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if got != run {
		t.Fatalf("run mismatch: got %+v want %+v", got, run)
	}

	if err := store.SaveFitnessHistory(ctx, "run-1", []float64{2, 1, 0.25}); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil || !ok || len(history) != 3 {
		t.Fatalf("get history: ok=%v err=%v %v", ok, err, history)
	}

	if err := store.SaveTopPhenotypes(ctx, "run-1", []model.TopPhenotypeRecord{
		{Rank: 1, Phenotype: "x + 1", Fitness: 0.25, UsedCodons: 5, Genome: []int{1, 2, 3}},
	}); err != nil {
		t.Fatalf("save top: %v", err)
	}
	top, ok, err := store.GetTopPhenotypes(ctx, "run-1")
	if err != nil || !ok || len(top) != 1 {
		t.Fatalf("get top: ok=%v err=%v %v", ok, err, top)
	}
	if top[0].Phenotype != "x + 1" || len(top[0].Genome) != 3 {
		t.Fatalf("top record mismatch: %+v", top[0])
	}

	if _, ok, err := store.GetDiagnostics(ctx, "missing"); ok || err != nil {
		t.Fatalf("missing diagnostics: ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "glossa.db"))
	if err := store.SaveRun(context.Background(), model.RunRecord{RunID: "x"}); err == nil {
		t.Fatal("expected error before init")
	}
}

func TestNewStoreKinds(t *testing.T) {
	if _, err := NewStore("memory", ""); err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, err := NewStore("sqlite", filepath.Join(t.TempDir(), "glossa.db")); err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	if _, err := NewStore("unknown", ""); err == nil {
		t.Fatal("expected unsupported store error")
	}
}

func TestSQLiteStoreReset(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "glossa.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	if err := store.SaveRun(ctx, model.RunRecord{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.SaveDiagnostics(ctx, "a", []model.GenerationDiagnostics{{Generation: 1}}); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok, err := store.GetRun(ctx, "a"); ok || err != nil {
		t.Fatalf("run survived reset: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.GetDiagnostics(ctx, "a"); ok || err != nil {
		t.Fatalf("diagnostics survived reset: ok=%v err=%v", ok, err)
	}
}
