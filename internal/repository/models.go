package repository

import (
	"time"

	"github.com/seojinpark/dtSim/pkg/model"
)

// SimulationRunRecord represents the simulation_runs table.
type SimulationRunRecord struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID         string    `gorm:"column:run_id;type:varchar(64);uniqueIndex"`
	Makespan      float64   `gorm:"column:makespan"`
	TaskCount     int       `gorm:"column:task_count"`
	ElementCount  int       `gorm:"column:element_count"`
	PlanPath      string    `gorm:"column:plan_path;type:varchar(512)"`
	ProfilePath   string    `gorm:"column:profile_path;type:varchar(512)"`
	CreatedAtUnix int64     `gorm:"column:created_at_unix"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for SimulationRunRecord.
func (SimulationRunRecord) TableName() string {
	return "simulation_runs"
}

// ToModel converts SimulationRunRecord to model.SimulationReport.
func (r *SimulationRunRecord) ToModel() *model.SimulationReport {
	return &model.SimulationReport{
		RunID:         r.RunID,
		Makespan:      r.Makespan,
		TaskCount:     r.TaskCount,
		ElementCount:  r.ElementCount,
		PlanPath:      r.PlanPath,
		ProfilePath:   r.ProfilePath,
		CreatedAtUnix: r.CreatedAtUnix,
	}
}

// FromModel builds a SimulationRunRecord from a model.SimulationReport.
func FromModel(run *model.SimulationReport) *SimulationRunRecord {
	return &SimulationRunRecord{
		RunID:         run.RunID,
		Makespan:      run.Makespan,
		TaskCount:     run.TaskCount,
		ElementCount:  run.ElementCount,
		PlanPath:      run.PlanPath,
		ProfilePath:   run.ProfilePath,
		CreatedAtUnix: run.CreatedAtUnix,
	}
}
