package storage

import (
	"context"

	"glossa/internal/model"
)

// Store persists run history for the host application. The engine itself
// keeps no state between process runs; stores record outcomes only.
type Store interface {
	Init(ctx context.Context) error
	Reset(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	SaveTopPhenotypes(ctx context.Context, runID string, top []model.TopPhenotypeRecord) error
	GetTopPhenotypes(ctx context.Context, runID string) ([]model.TopPhenotypeRecord, bool, error)
}
