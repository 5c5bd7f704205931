// Package profile holds per-accelerator-model compute-cost profiles and
// answers piecewise-linear interpolation queries over recorded
// (localBatch, computeTime) datapoints.
package profile

import (
	"fmt"
	"sort"

	"github.com/seojinpark/dtSim/pkg/dterrors"
)

// Phase is the training phase a cost datapoint belongs to.
type Phase int

const (
	Forward Phase = iota
	Backward
)

func (p Phase) String() string {
	if p == Forward {
		return "forward"
	}
	return "backward"
}

// Datapoint is one recorded (localBatch, computeTime) sample.
type Datapoint struct {
	LocalBatch  int
	ComputeTime float64
}

// Profile holds cost datapoints for a single accelerator model, keyed by
// phase and layerId. Grounded on profile.py's two-phase Profile class.
type Profile struct {
	series [2]map[int][]Datapoint
}

// NewProfile creates an empty Profile.
func NewProfile() *Profile {
	return &Profile{
		series: [2]map[int][]Datapoint{
			make(map[int][]Datapoint),
			make(map[int][]Datapoint),
		},
	}
}

// AddDatapoint appends a datapoint to the given phase/layer series and
// keeps it sorted by localBatch. Duplicate localBatch values are
// allowed.
func (p *Profile) AddDatapoint(phase Phase, layerId int, localBatch int, computeTime float64) {
	s := p.series[phase]
	s[layerId] = append(s[layerId], Datapoint{LocalBatch: localBatch, ComputeTime: computeTime})
	sort.Slice(s[layerId], func(i, j int) bool {
		return s[layerId][i].LocalBatch < s[layerId][j].LocalBatch
	})
}

// GetCost returns the interpolated compute time for localBatch at the
// given phase/layer. Finds the smallest recorded batch B >= localBatch;
// A is the previous entry, or (0,0) if none. Linear-interpolates between
// A and B. Errors if the layer has no datapoints or if localBatch
// exceeds every recorded batch.
func (p *Profile) GetCost(phase Phase, layerId int, localBatch int) (float64, error) {
	points, ok := p.series[phase][layerId]
	if !ok || len(points) == 0 {
		return 0, dterrors.New(dterrors.CodeProfileNoDatapoints, "no datapoints for layer").
			WithDetail(fmt.Sprintf("phase=%s layer=%d", phase, layerId))
	}

	var a Datapoint // implicit (0, 0) lower anchor
	for _, b := range points {
		if b.LocalBatch >= localBatch {
			if b.LocalBatch == a.LocalBatch {
				return b.ComputeTime, nil
			}
			frac := float64(localBatch-a.LocalBatch) / float64(b.LocalBatch-a.LocalBatch)
			return a.ComputeTime + frac*(b.ComputeTime-a.ComputeTime), nil
		}
		a = b
	}

	return 0, dterrors.New(dterrors.CodeProfileOutOfRange, "batch exceeds all recorded datapoints").
		WithDetail(fmt.Sprintf("phase=%s layer=%d batch=%d", phase, layerId, localBatch))
}

// HasLayer reports whether any datapoints are recorded for the given
// phase/layer.
func (p *Profile) HasLayer(phase Phase, layerId int) bool {
	points, ok := p.series[phase][layerId]
	return ok && len(points) > 0
}

// ProfileSet maps accelerator model name to its Profile, mirroring the
// Python implementation's per-model `profiles` dict.
type ProfileSet struct {
	byModel map[string]*Profile
}

// NewProfileSet creates an empty ProfileSet.
func NewProfileSet() *ProfileSet {
	return &ProfileSet{byModel: make(map[string]*Profile)}
}

// Put registers the Profile for the given accelerator model.
func (ps *ProfileSet) Put(model string, p *Profile) {
	ps.byModel[model] = p
}

// Get returns the Profile for the given accelerator model.
func (ps *ProfileSet) Get(model string) (*Profile, error) {
	p, ok := ps.byModel[model]
	if !ok {
		return nil, dterrors.New(dterrors.CodeProfileUnknownLayer, "no profile for accelerator model").WithDetail(model)
	}
	return p, nil
}
