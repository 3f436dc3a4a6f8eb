package storage

import (
	"context"
	"testing"

	"glossa/internal/model"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := model.RunRecord{
		RunID:         "run-1",
		CreatedAtUTC:  "2026-01-02T03:04:05Z",
		Evaluator:     "textmatch",
		Direction:     "maximize",
		Population:    50,
		Generations:   100,
		BestFitness:   0.75,
		BestPhenotype: "hello",
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if got != run {
		t.Fatalf("run record mismatch: got %+v", got)
	}

	if err := store.SaveFitnessHistory(ctx, "run-1", []float64{0.1, 0.5, 0.75}); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%v err=%v", ok, err)
	}
	if len(history) != 3 || history[2] != 0.75 {
		t.Fatalf("history mismatch: %v", history)
	}

	if err := store.SaveDiagnostics(ctx, "run-1", []model.GenerationDiagnostics{{Generation: 1, BestFitness: 0.1}}); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	diagnostics, ok, err := store.GetDiagnostics(ctx, "run-1")
	if err != nil || !ok || len(diagnostics) != 1 {
		t.Fatalf("get diagnostics: ok=%v err=%v len=%d", ok, err, len(diagnostics))
	}

	if err := store.SaveTopPhenotypes(ctx, "run-1", []model.TopPhenotypeRecord{{Rank: 1, Phenotype: "hello", Fitness: 0.75}}); err != nil {
		t.Fatalf("save top: %v", err)
	}
	top, ok, err := store.GetTopPhenotypes(ctx, "run-1")
	if err != nil || !ok || len(top) != 1 || top[0].Phenotype != "hello" {
		t.Fatalf("get top: ok=%v err=%v %v", ok, err, top)
	}
}

func TestMemoryStoreMissingRun(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, ok, err := store.GetRun(ctx, "nope"); ok || err != nil {
		t.Fatalf("missing run: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.GetFitnessHistory(ctx, "nope"); ok || err != nil {
		t.Fatalf("missing history: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListRunsOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, run := range []model.RunRecord{
		{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"},
		{RunID: "b", CreatedAtUTC: "2026-01-03T00:00:00Z"},
		{RunID: "c", CreatedAtUTC: "2026-01-02T00:00:00Z"},
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.RunID, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "b" || runs[1].RunID != "c" {
		t.Fatalf("list order mismatch: %+v", runs)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveRun(ctx, model.RunRecord{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.SaveFitnessHistory(ctx, "a", []float64{1}); err != nil {
		t.Fatalf("save history: %v", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected empty store after reset, got %+v", runs)
	}
	if _, ok, err := store.GetFitnessHistory(ctx, "a"); ok || err != nil {
		t.Fatalf("history survived reset: ok=%v err=%v", ok, err)
	}
}
