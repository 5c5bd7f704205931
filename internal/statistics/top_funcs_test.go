package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopResourcesCalculator_Calculate_Basic(t *testing.T) {
	samples := []ResourceSample{
		{Handle: 1, Kind: "accelerator", BusyTime: 100, TaskCount: 4},
		{Handle: 2, Kind: "accelerator", BusyTime: 80, TaskCount: 3},
		{Handle: 3, Kind: "link", BusyTime: 50, TaskCount: 2},
		{Handle: 4, Kind: "link", BusyTime: 10, TaskCount: 1},
	}

	calc := NewTopResourcesCalculator(WithTopN(3))
	result := calc.Calculate(samples, 100)

	require.NotNil(t, result)
	assert.Equal(t, 4, result.TotalResources)
	assert.Len(t, result.Top, 3)

	assert.Equal(t, 1, result.Top[0].Handle)
	assert.InDelta(t, 100.0, result.Top[0].Percent, 0.01)

	assert.Equal(t, 2, result.Top[1].Handle)
	assert.InDelta(t, 80.0, result.Top[1].Percent, 0.01)

	assert.Equal(t, 3, result.Top[2].Handle)
	assert.InDelta(t, 50.0, result.Top[2].Percent, 0.01)
}

func TestTopResourcesCalculator_Calculate_EmptySamples(t *testing.T) {
	calc := NewTopResourcesCalculator()
	result := calc.Calculate(nil, 100)

	require.NotNil(t, result)
	assert.Equal(t, 0, result.TotalResources)
	assert.Empty(t, result.Top)
}

func TestTopResourcesCalculator_Calculate_ZeroMakespanIsZeroPercent(t *testing.T) {
	samples := []ResourceSample{
		{Handle: 1, Kind: "accelerator", BusyTime: 0, TaskCount: 0},
	}

	calc := NewTopResourcesCalculator()
	result := calc.Calculate(samples, 0)

	require.Len(t, result.Top, 1)
	assert.Equal(t, 0.0, result.Top[0].Percent)
}

func TestTopResourcesCalculator_Calculate_TopN(t *testing.T) {
	samples := make([]ResourceSample, 0, 20)
	for i := 0; i < 20; i++ {
		samples = append(samples, ResourceSample{
			Handle:   i,
			Kind:     "link",
			BusyTime: float64(100 - i),
		})
	}

	calc := NewTopResourcesCalculator(WithTopN(5))
	result := calc.Calculate(samples, 100)

	assert.Len(t, result.Top, 5)
	assert.Equal(t, 0, result.Top[0].Handle)
	assert.InDelta(t, 100.0, result.Top[0].Percent, 0.01)
}

func TestTopResourcesCalculator_Calculate_Percentages(t *testing.T) {
	samples := []ResourceSample{
		{Handle: 1, Kind: "accelerator", BusyTime: 50},
		{Handle: 2, Kind: "accelerator", BusyTime: 30},
		{Handle: 3, Kind: "accelerator", BusyTime: 20},
	}

	calc := NewTopResourcesCalculator()
	result := calc.Calculate(samples, 100)

	assert.InDelta(t, 50.0, result.Top[0].Percent, 0.01)
	assert.InDelta(t, 30.0, result.Top[1].Percent, 0.01)
	assert.InDelta(t, 20.0, result.Top[2].Percent, 0.01)
}

func TestTopResourcesCalculator_Calculate_TaskCountCarried(t *testing.T) {
	samples := []ResourceSample{
		{Handle: 1, Kind: "accelerator", BusyTime: 50, TaskCount: 7},
	}

	calc := NewTopResourcesCalculator()
	result := calc.Calculate(samples, 100)

	require.Len(t, result.Top, 1)
	assert.Equal(t, 7, result.Top[0].TaskCount)
}

func BenchmarkTopResourcesCalculator_Calculate(b *testing.B) {
	samples := make([]ResourceSample, 10000)
	for i := range samples {
		samples[i] = ResourceSample{Handle: i, Kind: "link", BusyTime: float64(100 + i%50)}
	}

	calc := NewTopResourcesCalculator(WithTopN(15))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		calc.Calculate(samples, 1000)
	}
}
