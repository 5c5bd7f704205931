package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleSwitchFabric_Path(t *testing.T) {
	net, err := BuildSingleSwitchFabric(2, "h100", 1000, 17)
	require.NoError(t, err)

	gpu1, gpu2 := 1, 2 // switch is handle 0, gpus follow in creation order

	path, err := net.Path(gpu1, gpu2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, gpu2}, path)
}

func TestPath_SelfPairAbsent(t *testing.T) {
	net, err := BuildSingleSwitchFabric(2, "h100", 1000, 17)
	require.NoError(t, err)

	_, err = net.Path(1, 1)
	assert.Error(t, err)
}

func TestPath_UnreachableIsError(t *testing.T) {
	net := NewNetwork()
	a := net.AddAccelerator("a", "h100")
	b := net.AddAccelerator("b", "h100")
	net.ComputeShortestPaths()

	_, err := net.Path(a, b)
	assert.Error(t, err)
}

func TestHostFabric_CrossHostIsThreeHops_SameHostIsTwoHops(t *testing.T) {
	// 2 hosts, 2 gpus per host.
	net, err := BuildHostFabric(2, 2, "h100", 400, 5, 100, 10)
	require.NoError(t, err)

	var gpus []int
	for _, e := range net.Accelerators() {
		gpus = append(gpus, e.Handle)
	}
	require.Len(t, gpus, 4)

	// gpus[0], gpus[1] on host 0; gpus[2], gpus[3] on host 1.
	sameHostPath, err := net.Path(gpus[0], gpus[1])
	require.NoError(t, err)
	assert.Len(t, sameHostPath, 2) // host0, gpus[1]

	crossHostPath, err := net.Path(gpus[0], gpus[2])
	require.NoError(t, err)
	assert.Len(t, crossHostPath, 4) // host0, tor, host1, gpus[2]
}

func TestLink_CalcXferTime_PreservesUnitMismatch(t *testing.T) {
	l := &Link{BwGbps: 1000, LatUsec: 17}
	assert.Equal(t, 18.0, l.CalcXferTime(1000))
}

func TestAddLink_UnknownElementIsError(t *testing.T) {
	net := NewNetwork()
	a := net.AddAccelerator("a", "h100")
	_, err := net.AddLink(a, 99, 100, 1)
	assert.Error(t, err)
}

func TestComputeShortestPaths_DeterministicTieBreak(t *testing.T) {
	net, err := BuildSingleSwitchFabric(3, "h100", 1000, 17)
	require.NoError(t, err)

	net2, err := BuildSingleSwitchFabric(3, "h100", 1000, 17)
	require.NoError(t, err)

	for src := 0; src < 4; src++ {
		for dst := 0; dst < 4; dst++ {
			if src == dst {
				continue
			}
			p1, err1 := net.Path(src, dst)
			p2, err2 := net2.Path(src, dst)
			assert.Equal(t, err1 == nil, err2 == nil)
			if err1 == nil {
				assert.Equal(t, p1, p2)
			}
		}
	}
}
