package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoLayerPlan(batchA, batchB int) (*Plan, error) {
	layerA := &Layer{
		LayerId:  1,
		Replicas: []Replica{{AcceleratorHandle: 0, LocalBatch: batchA}},
	}
	layerB := &Layer{
		LayerId:    2,
		PrevLayers: []PrevLayer{{LayerId: 1, InputBytesPerSample: 4}},
		Replicas:   []Replica{{AcceleratorHandle: 1, LocalBatch: batchB}},
	}
	return NewPlan([]*Layer{layerA, layerB})
}

func TestDerive_BatchMismatchIsFatal(t *testing.T) {
	// S3: layer with localBatch sum 64 preceded by a layer with sum 32.
	p, err := twoLayerPlan(32, 64)
	require.NoError(t, err)

	err = p.Derive()
	assert.Error(t, err)
}

func TestDerive_MatchingBatchesSucceed(t *testing.T) {
	p, err := twoLayerPlan(32, 32)
	require.NoError(t, err)

	require.NoError(t, p.Derive())

	layerA, err := p.Layer(1)
	require.NoError(t, err)
	require.Len(t, layerA.NextLayers, 1)
	assert.Equal(t, 2, layerA.NextLayers[0].LayerId)
	assert.Equal(t, 4.0, layerA.NextLayers[0].OutputBytesPerSample)

	layerB, err := p.Layer(2)
	require.NoError(t, err)
	assert.Empty(t, layerB.NextLayers)
}

func TestDerive_UnknownPrevLayerIsError(t *testing.T) {
	layer := &Layer{
		LayerId:    1,
		PrevLayers: []PrevLayer{{LayerId: 99, InputBytesPerSample: 1}},
		Replicas:   []Replica{{AcceleratorHandle: 0, LocalBatch: 8}},
	}
	p, err := NewPlan([]*Layer{layer})
	require.NoError(t, err)

	assert.Error(t, p.Derive())
}

func TestNewPlan_EmptyIsError(t *testing.T) {
	_, err := NewPlan(nil)
	assert.Error(t, err)
}

func TestSampleRange(t *testing.T) {
	l := &Layer{
		Replicas: []Replica{
			{AcceleratorHandle: 0, LocalBatch: 10},
			{AcceleratorHandle: 1, LocalBatch: 20},
			{AcceleratorHandle: 2, LocalBatch: 5},
		},
	}

	a, b := l.SampleRange(0)
	assert.Equal(t, 0, a)
	assert.Equal(t, 10, b)

	a, b = l.SampleRange(1)
	assert.Equal(t, 10, a)
	assert.Equal(t, 30, b)

	a, b = l.SampleRange(2)
	assert.Equal(t, 30, a)
	assert.Equal(t, 35, b)
}

func TestOverlapBytes(t *testing.T) {
	assert.Equal(t, 10.0, OverlapBytes(0, 10, 5, 15, 2))
	assert.Equal(t, 0.0, OverlapBytes(0, 5, 5, 10, 2))
	assert.Equal(t, 20.0, OverlapBytes(0, 10, 0, 10, 2))
}
