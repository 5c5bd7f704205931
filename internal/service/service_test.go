package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojinpark/dtSim/internal/topology"
	"github.com/seojinpark/dtSim/pkg/config"
	"github.com/seojinpark/dtSim/pkg/utils"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Simulation: config.SimulationConfig{DataDir: filepath.Join(dir, "data")},
		Database:   config.DatabaseConfig{Type: "sqlite", Database: filepath.Join(dir, "dtsim.db")},
		Storage:    config.StorageConfig{Type: "local", LocalPath: filepath.Join(dir, "storage")},
		Sweep:      config.SweepConfig{WorkerCount: 2, BatchSize: 4},
	}
}

func TestService_New(t *testing.T) {
	cfg := testConfig(t)

	t.Run("WithLogger", func(t *testing.T) {
		logger := utils.NewDefaultLogger(utils.LevelInfo, nil)
		svc, err := New(cfg, logger)
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.False(t, svc.IsRunning())
	})

	t.Run("WithoutLogger", func(t *testing.T) {
		svc, err := New(cfg, nil)
		require.NoError(t, err)
		require.NotNil(t, svc)
	})
}

func TestService_HealthCheck_NoComponents(t *testing.T) {
	svc, err := New(testConfig(t), nil)
	require.NoError(t, err)

	err = svc.HealthCheck(context.Background())
	assert.NoError(t, err)
}

func TestService_InitializeAndStop(t *testing.T) {
	svc, err := New(testConfig(t), nil)
	require.NoError(t, err)

	require.NoError(t, svc.Initialize(context.Background()))
	assert.True(t, svc.IsRunning())

	require.NoError(t, svc.HealthCheck(context.Background()))
	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())
}

const servicePlanJSON = `[
  {
    "layerId": 1,
    "name": "embed",
    "modelBytes": 1000,
    "prevLayers": [],
    "assignedAccelerators": [{"id": 1, "localBatch": 32}]
  }
]`

func TestService_RunSimulation_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)

	svc, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(context.Background()))
	defer svc.Stop()

	planPath := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(planPath, []byte(servicePlanJSON), 0644))

	profilePath := filepath.Join(dir, "h100.json")
	profileContent, err := json.Marshal([2]map[string][][2]float64{
		{"1": {{32, 75}}},
		{"1": {{32, 50}}},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(profilePath, profileContent, 0644))

	net, err := topology.BuildSingleSwitchFabric(1, "h100", 1000, 17)
	require.NoError(t, err)

	result, err := svc.RunSimulation(context.Background(), RunOptions{
		Net:         net,
		PlanPath:    planPath,
		ProfilePath: map[string]string{"h100": profilePath},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 125.0, result.Report.Makespan)
	assert.NotEmpty(t, result.RunID)

	run, err := svc.db.Run.GetRunByID(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, 125.0, run.Makespan)
}
