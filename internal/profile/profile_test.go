package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCost_Interpolation(t *testing.T) {
	p := NewProfile()
	p.AddDatapoint(Forward, 1, 32, 100)
	p.AddDatapoint(Forward, 1, 64, 164)

	cost, err := p.GetCost(Forward, 1, 48)
	require.NoError(t, err)
	assert.Equal(t, 132.0, cost)

	cost, err = p.GetCost(Forward, 1, 16)
	require.NoError(t, err)
	assert.Equal(t, 50.0, cost)

	_, err = p.GetCost(Forward, 1, 65)
	assert.Error(t, err)
}

func TestGetCost_ExactRecordedBatch(t *testing.T) {
	p := NewProfile()
	p.AddDatapoint(Forward, 1, 32, 100)
	p.AddDatapoint(Forward, 1, 64, 164)

	cost, err := p.GetCost(Forward, 1, 32)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cost)

	cost, err = p.GetCost(Forward, 1, 64)
	require.NoError(t, err)
	assert.Equal(t, 164.0, cost)
}

func TestGetCost_UnknownLayer(t *testing.T) {
	p := NewProfile()
	_, err := p.GetCost(Forward, 99, 1)
	assert.Error(t, err)
}

func TestGetCost_OutOfOrderInsertionIsSorted(t *testing.T) {
	p := NewProfile()
	p.AddDatapoint(Backward, 2, 64, 164)
	p.AddDatapoint(Backward, 2, 32, 100)

	cost, err := p.GetCost(Backward, 2, 48)
	require.NoError(t, err)
	assert.Equal(t, 132.0, cost)
}

func TestGetCost_PhasesAreIndependent(t *testing.T) {
	p := NewProfile()
	p.AddDatapoint(Forward, 1, 32, 100)
	_, err := p.GetCost(Backward, 1, 16)
	assert.Error(t, err)
}

func TestGetCost_Monotonicity(t *testing.T) {
	p := NewProfile()
	p.AddDatapoint(Forward, 1, 10, 10)
	p.AddDatapoint(Forward, 1, 20, 25)
	p.AddDatapoint(Forward, 1, 40, 25)

	prev := -1.0
	for _, batch := range []int{1, 5, 10, 15, 20, 30, 40} {
		cost, err := p.GetCost(Forward, 1, batch)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cost, prev)
		prev = cost
	}
}

func TestProfileSet_Get(t *testing.T) {
	ps := NewProfileSet()
	p := NewProfile()
	ps.Put("h100", p)

	got, err := ps.Get("h100")
	require.NoError(t, err)
	assert.Same(t, p, got)

	_, err = ps.Get("a100")
	assert.Error(t, err)
}
