package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/seojinpark/dtSim/internal/profile"
	"github.com/seojinpark/dtSim/internal/topology"
	"github.com/seojinpark/dtSim/pkg/dterrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoLayerPlanJSON = `[
  {
    "layerId": 1,
    "name": "embed",
    "modelBytes": 1000,
    "prevLayers": [],
    "assignedAccelerators": [
      {"id": 1, "localBatch": 32},
      {"id": 2, "localBatch": 32}
    ]
  },
  {
    "layerId": 2,
    "name": "head",
    "modelBytes": 2000,
    "prevLayers": [
      {"LayerId": 1, "InputBytesPerSample": 4}
    ],
    "assignedAccelerators": [
      {"id": 1, "localBatch": 64}
    ]
  }
]`

const profileJSON = `[
  {"1": [[32, 50.0]], "2": [[64, 120.0]]},
  {"1": [[32, 40.0]], "2": [[64, 100.0]]}
]`

func TestLoadPlan_RankBasedResolution(t *testing.T) {
	net, err := topology.BuildSingleSwitchFabric(2, "h100", 1000, 17)
	require.NoError(t, err)
	accelerators := net.Accelerators()

	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(twoLayerPlanJSON), 0644))

	p, err := LoadPlan(path, net)
	require.NoError(t, err)
	require.Len(t, p.Layers, 2)

	layer1, err := p.Layer(1)
	require.NoError(t, err)
	require.Len(t, layer1.Replicas, 2)
	assert.Equal(t, accelerators[0].Handle, layer1.Replicas[0].AcceleratorHandle)
	assert.Equal(t, accelerators[1].Handle, layer1.Replicas[1].AcceleratorHandle)
}

func TestLoadPlan_HandleIDsMode(t *testing.T) {
	net, err := topology.BuildSingleSwitchFabric(2, "h100", 1000, 17)
	require.NoError(t, err)
	accelerators := net.Accelerators()

	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(twoLayerPlanJSON), 0644))

	p, err := LoadPlan(path, net, WithHandleIDs(true))
	require.NoError(t, err)

	layer1, err := p.Layer(1)
	require.NoError(t, err)
	// handle mode: "id" is used verbatim as the element handle, not
	// looked up by rank, so it need not equal accelerators[id-1].Handle
	// unless the handles happen to be assigned in that order.
	assert.Equal(t, 1, layer1.Replicas[0].AcceleratorHandle)
	assert.Equal(t, 2, layer1.Replicas[1].AcceleratorHandle)
	_ = accelerators
}

func TestLoadPlan_RankOutOfRangeIsError(t *testing.T) {
	net, err := topology.BuildSingleSwitchFabric(1, "h100", 1000, 17)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(twoLayerPlanJSON), 0644))

	_, err = LoadPlan(path, net)
	assert.Error(t, err)
	assert.Equal(t, dterrors.CodePlanInvalidReplica, dterrors.GetErrorCode(err))
}

func TestLoadPlan_MissingFileIsError(t *testing.T) {
	net, err := topology.BuildSingleSwitchFabric(1, "h100", 1000, 17)
	require.NoError(t, err)

	_, err = LoadPlan("/nonexistent/plan.json", net)
	assert.Error(t, err)
}

func TestLoadProfile_ParsesBothPhases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(profileJSON), 0644))

	p, err := LoadProfile(path)
	require.NoError(t, err)

	fwd, err := p.GetCost(profile.Forward, 1, 32)
	require.NoError(t, err)
	assert.Equal(t, 50.0, fwd)

	bwd, err := p.GetCost(profile.Backward, 1, 32)
	require.NoError(t, err)
	assert.Equal(t, 40.0, bwd)
}

func TestLoadProfileSet_MultipleModels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "h100.json")
	require.NoError(t, os.WriteFile(path, []byte(profileJSON), 0644))

	ps, err := LoadProfileSet(map[string]string{"h100": path})
	require.NoError(t, err)

	p, err := ps.Get("h100")
	require.NoError(t, err)
	cost, err := p.GetCost(profile.Forward, 2, 64)
	require.NoError(t, err)
	assert.Equal(t, 120.0, cost)

	_, err = ps.Get("unknown")
	assert.Error(t, err)
}
