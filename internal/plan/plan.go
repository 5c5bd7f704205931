// Package plan holds the layered training-plan domain model: layers,
// their predecessor edges, and per-layer replica assignments with
// contiguous sample ranges.
package plan

import (
	"fmt"

	"github.com/seojinpark/dtSim/pkg/dterrors"
)

// PrevLayer is one predecessor edge of a Layer, carrying the
// bytes-per-sample used to size transfers from that predecessor.
type PrevLayer struct {
	LayerId             int
	InputBytesPerSample float64
}

// NextLayer is the inverse of a PrevLayer, derived during DAG
// construction: a successor edge carrying the same bytes-per-sample.
type NextLayer struct {
	LayerId              int
	OutputBytesPerSample float64
}

// Replica is one parallel copy of a layer, bound to an accelerator
// element handle and a count of local samples.
type Replica struct {
	AcceleratorHandle int
	LocalBatch        int
}

// Layer is one unit of a training plan.
type Layer struct {
	LayerId     int
	Name        string
	ModelBytes  float64
	PrevLayers  []PrevLayer
	NextLayers  []NextLayer // filled in by Plan.Derive
	Replicas    []Replica
}

// GlobalBatch returns the sum of localBatch across the layer's replicas.
func (l *Layer) GlobalBatch() int {
	total := 0
	for _, r := range l.Replicas {
		total += r.LocalBatch
	}
	return total
}

// SampleRange returns the half-open sample range [a, b) owned by the
// replica at index i: the contiguous partition of [0, GlobalBatch())
// in replica order.
func (l *Layer) SampleRange(i int) (int, int) {
	a := 0
	for j := 0; j < i; j++ {
		a += l.Replicas[j].LocalBatch
	}
	return a, a + l.Replicas[i].LocalBatch
}

// Plan is an ordered list of layers in topological order of the layer
// DAG (forward order).
type Plan struct {
	Layers []*Layer

	byLayerId map[int]*Layer
}

// NewPlan builds a Plan from layers already in forward topological
// order, indexing them by layerId.
func NewPlan(layers []*Layer) (*Plan, error) {
	if len(layers) == 0 {
		return nil, dterrors.New(dterrors.CodePlanEmpty, "plan has no layers")
	}

	p := &Plan{Layers: layers, byLayerId: make(map[int]*Layer, len(layers))}
	for _, l := range layers {
		p.byLayerId[l.LayerId] = l
	}
	return p, nil
}

// Layer looks up a layer by id.
func (p *Plan) Layer(layerId int) (*Layer, error) {
	l, ok := p.byLayerId[layerId]
	if !ok {
		return nil, dterrors.New(dterrors.CodePlanUnknownLayer, "unknown layerId").WithDetail(fmt.Sprintf("%d", layerId))
	}
	return l, nil
}

// Derive populates NextLayers on every layer as the inverse
// adjacency of PrevLayers (copying InputBytesPerSample into
// OutputBytesPerSample), and validates the plan's structural
// invariants:
//   - every prevLayers entry references a known layerId
//   - the global batch of every layer equals the global batch of every
//     predecessor and successor layer
//   - exactly the last layer in plan order ends up with empty
//     NextLayers; every other layer has at least one
func (p *Plan) Derive() error {
	for _, l := range p.Layers {
		l.NextLayers = nil
	}

	for _, l := range p.Layers {
		for _, pl := range l.PrevLayers {
			prev, err := p.Layer(pl.LayerId)
			if err != nil {
				return err
			}
			prev.NextLayers = append(prev.NextLayers, NextLayer{
				LayerId:              l.LayerId,
				OutputBytesPerSample: pl.InputBytesPerSample,
			})
		}
	}

	for _, l := range p.Layers {
		globalBatch := l.GlobalBatch()
		for _, pl := range l.PrevLayers {
			prev, err := p.Layer(pl.LayerId)
			if err != nil {
				return err
			}
			if prev.GlobalBatch() != globalBatch {
				return dterrors.New(dterrors.CodePlanBatchMismatch, "predecessor batch mismatch").
					WithDetail(fmt.Sprintf("layer=%d batch=%d prevLayer=%d prevBatch=%d", l.LayerId, globalBatch, prev.LayerId, prev.GlobalBatch()))
			}
		}
	}

	terminalCount := 0
	for i, l := range p.Layers {
		isLast := i == len(p.Layers)-1
		if len(l.NextLayers) == 0 {
			terminalCount++
			if !isLast {
				return dterrors.New(dterrors.CodePlanUnknownLayer, "non-terminal layer has no successors").
					WithDetail(fmt.Sprintf("layer=%d", l.LayerId))
			}
		} else if isLast {
			return dterrors.New(dterrors.CodePlanUnknownLayer, "terminal layer unexpectedly has successors").
				WithDetail(fmt.Sprintf("layer=%d", l.LayerId))
		}
	}
	if terminalCount != 1 {
		return dterrors.New(dterrors.CodePlanUnknownLayer, "plan does not have exactly one terminal layer").
			WithDetail(fmt.Sprintf("terminalCount=%d", terminalCount))
	}

	return nil
}

// TerminalLayer returns the plan's unique terminal layer (empty
// NextLayers) — the last layer in plan order once Derive has run.
func (p *Plan) TerminalLayer() *Layer {
	return p.Layers[len(p.Layers)-1]
}

// OverlapBytes returns the byte count for a transfer between two
// overlapping sample ranges [a,b) and [aPrime,bPrime) at the given
// bytes-per-sample rate.
func OverlapBytes(a, b, aPrime, bPrime int, bytesPerSample float64) float64 {
	lo := a
	if aPrime > lo {
		lo = aPrime
	}
	hi := b
	if bPrime < hi {
		hi = bPrime
	}
	if hi <= lo {
		return 0
	}
	return float64(hi-lo) * bytesPerSample
}
