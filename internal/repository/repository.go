// Package repository provides database abstraction for the dtsim service:
// persistence of completed simulation run summaries.
package repository

import (
	"context"

	"github.com/seojinpark/dtSim/pkg/model"
)

// SimulationRunRepository defines the interface for simulation-run
// persistence.
type SimulationRunRepository interface {
	// SaveRun persists a completed run's summary.
	SaveRun(ctx context.Context, run *model.SimulationReport) error

	// GetRunByID retrieves a run's summary by its run id.
	GetRunByID(ctx context.Context, runID string) (*model.SimulationReport, error)

	// ListRecentRuns retrieves up to limit runs, most recent first.
	ListRecentRuns(ctx context.Context, limit int) ([]*model.SimulationReport, error)
}
