package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/seojinpark/dtSim/pkg/model"
	"gorm.io/gorm"
)

// GormSimulationRunRepository implements SimulationRunRepository using GORM.
type GormSimulationRunRepository struct {
	db *gorm.DB
}

// NewGormSimulationRunRepository creates a new GormSimulationRunRepository.
func NewGormSimulationRunRepository(db *gorm.DB) *GormSimulationRunRepository {
	return &GormSimulationRunRepository{db: db}
}

// SaveRun persists a completed run's summary.
func (r *GormSimulationRunRepository) SaveRun(ctx context.Context, run *model.SimulationReport) error {
	record := FromModel(run)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save simulation run: %w", err)
	}
	return nil
}

// GetRunByID retrieves a run's summary by its run id.
func (r *GormSimulationRunRepository) GetRunByID(ctx context.Context, runID string) (*model.SimulationReport, error) {
	var record SimulationRunRecord

	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("simulation run not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to get simulation run: %w", err)
	}

	return record.ToModel(), nil
}

// ListRecentRuns retrieves up to limit runs, most recent first.
func (r *GormSimulationRunRepository) ListRecentRuns(ctx context.Context, limit int) ([]*model.SimulationReport, error) {
	var records []SimulationRunRecord

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list simulation runs: %w", err)
	}

	result := make([]*model.SimulationReport, len(records))
	for i, rec := range records {
		result[i] = rec.ToModel()
	}

	return result, nil
}
