// Package statistics ranks simulation resources (accelerators, hosts,
// switches, links) by busy-time share of the run's makespan.
package statistics

import "sort"

// ResourceSample is one element or link's accumulated busy time over a
// completed run, as gathered by internal/report.
type ResourceSample struct {
	Handle    int
	Kind      string
	BusyTime  float64
	TaskCount int
}

// TopResourcesCalculator ranks ResourceSamples by busy-time share of the
// makespan and keeps the topN busiest.
type TopResourcesCalculator struct {
	topN int
}

// TopResourcesOption configures the TopResourcesCalculator.
type TopResourcesOption func(*TopResourcesCalculator)

// WithTopN sets how many ranked resources to keep.
func WithTopN(n int) TopResourcesOption {
	return func(c *TopResourcesCalculator) {
		c.topN = n
	}
}

// NewTopResourcesCalculator creates a calculator, defaulting to keeping
// the busiest 15 resources.
func NewTopResourcesCalculator(opts ...TopResourcesOption) *TopResourcesCalculator {
	c := &TopResourcesCalculator{topN: 15}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResourceEntry is one ranked resource with its utilization percent.
type ResourceEntry struct {
	Handle    int
	Kind      string
	BusyTime  float64
	Percent   float64
	TaskCount int
}

// TopResourcesResult holds the ranking.
type TopResourcesResult struct {
	Top            []ResourceEntry
	TotalResources int
}

// Calculate ranks samples by BusyTime descending and keeps the topN.
// makespan of zero yields zero percent for every entry rather than
// dividing by zero.
func (c *TopResourcesCalculator) Calculate(samples []ResourceSample, makespan float64) *TopResourcesResult {
	result := &TopResourcesResult{
		Top:            make([]ResourceEntry, 0, len(samples)),
		TotalResources: len(samples),
	}

	entries := make([]ResourceEntry, 0, len(samples))
	for _, s := range samples {
		pct := 0.0
		if makespan > 0 {
			pct = s.BusyTime / makespan * 100
		}
		entries = append(entries, ResourceEntry{
			Handle:    s.Handle,
			Kind:      s.Kind,
			BusyTime:  s.BusyTime,
			Percent:   pct,
			TaskCount: s.TaskCount,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Percent > entries[j].Percent
	})

	topN := c.topN
	if topN > len(entries) {
		topN = len(entries)
	}
	result.Top = entries[:topN]

	return result
}
