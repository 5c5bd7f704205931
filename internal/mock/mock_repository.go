package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/seojinpark/dtSim/pkg/model"
)

// MockSimulationRunRepository is a mock implementation of the
// repository.SimulationRunRepository interface.
type MockSimulationRunRepository struct {
	mock.Mock
}

// SaveRun mocks the SaveRun method.
func (m *MockSimulationRunRepository) SaveRun(ctx context.Context, run *model.SimulationReport) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// GetRunByID mocks the GetRunByID method.
func (m *MockSimulationRunRepository) GetRunByID(ctx context.Context, runID string) (*model.SimulationReport, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SimulationReport), args.Error(1)
}

// ListRecentRuns mocks the ListRecentRuns method.
func (m *MockSimulationRunRepository) ListRecentRuns(ctx context.Context, limit int) ([]*model.SimulationReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SimulationReport), args.Error(1)
}

// ExpectSaveRun sets up an expectation for SaveRun.
func (m *MockSimulationRunRepository) ExpectSaveRun(err error) *mock.Call {
	return m.On("SaveRun", mock.Anything, mock.Anything).Return(err)
}

// ExpectGetRunByID sets up an expectation for GetRunByID.
func (m *MockSimulationRunRepository) ExpectGetRunByID(runID string, run *model.SimulationReport, err error) *mock.Call {
	return m.On("GetRunByID", mock.Anything, runID).Return(run, err)
}

// ExpectListRecentRuns sets up an expectation for ListRecentRuns.
func (m *MockSimulationRunRepository) ExpectListRecentRuns(limit int, runs []*model.SimulationReport, err error) *mock.Call {
	return m.On("ListRecentRuns", mock.Anything, limit).Return(runs, err)
}
