// Package loader parses plan and profile JSON files (per the wire
// format in §6) into the internal/plan and internal/profile domain
// types, resolving accelerator ids against a topology.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/seojinpark/dtSim/internal/plan"
	"github.com/seojinpark/dtSim/internal/profile"
	"github.com/seojinpark/dtSim/internal/topology"
	"github.com/seojinpark/dtSim/pkg/dterrors"
	"github.com/seojinpark/dtSim/pkg/model"
)

// Options configures plan loading.
type Options struct {
	// HandleIDsMode, when true, treats a replica's "id" field as an
	// element handle directly instead of a 1-based rank into the
	// topology's accelerators list.
	HandleIDsMode bool
}

// Option configures Options.
type Option func(*Options)

// WithHandleIDs selects the handle-based accelerator-id resolution
// mode (id is used directly as an element handle) instead of the
// default rank-based mode (id is a 1-based rank, resolved via
// accelerators[id-1]).
func WithHandleIDs(enabled bool) Option {
	return func(o *Options) {
		o.HandleIDsMode = enabled
	}
}

// LoadPlan reads and parses a plan JSON file, resolving accelerator ids
// against net's accelerator list, and returns the domain Plan. The
// returned Plan has not yet had Derive() called; callers (typically
// internal/dag.Builder) call it as part of graph construction.
func LoadPlan(path string, net *topology.Network, opts ...Option) (*plan.Plan, error) {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dterrors.Wrap(dterrors.CodeIOError, "failed to read plan file", err).WithDetail(path)
	}

	var file model.PlanFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, dterrors.Wrap(dterrors.CodeParseError, "failed to parse plan JSON", err).WithDetail(path)
	}

	accelerators := net.Accelerators()

	layers := make([]*plan.Layer, 0, len(file))
	for _, ld := range file {
		prevLayers := make([]plan.PrevLayer, 0, len(ld.PrevLayers))
		for _, pl := range ld.PrevLayers {
			prevLayers = append(prevLayers, plan.PrevLayer{
				LayerId:             pl.LayerId,
				InputBytesPerSample: pl.InputBytesPerSample,
			})
		}

		replicas := make([]plan.Replica, 0, len(ld.AssignedAccelerators))
		for _, rd := range ld.AssignedAccelerators {
			handle, err := resolveAccelerator(rd.ID, accelerators, o.HandleIDsMode)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, plan.Replica{
				AcceleratorHandle: handle,
				LocalBatch:        rd.LocalBatch,
			})
		}

		layers = append(layers, &plan.Layer{
			LayerId:    ld.LayerId,
			Name:       ld.Name,
			ModelBytes: ld.ModelBytes,
			PrevLayers: prevLayers,
			Replicas:   replicas,
		})
	}

	return plan.NewPlan(layers)
}

func resolveAccelerator(id int, accelerators []*topology.Element, handleIDsMode bool) (int, error) {
	if handleIDsMode {
		return id, nil
	}
	rank := id - 1
	if rank < 0 || rank >= len(accelerators) {
		return 0, dterrors.New(dterrors.CodePlanInvalidReplica, "accelerator rank out of range").
			WithDetail(fmt.Sprintf("id=%d numAccelerators=%d", id, len(accelerators)))
	}
	return accelerators[rank].Handle, nil
}

// LoadProfile reads and parses a profile JSON file for a single
// accelerator model: a two-element array [forwardMap, backwardMap],
// each keying layerId (as a string) to a list of [batch, time] pairs.
func LoadProfile(path string) (*profile.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dterrors.Wrap(dterrors.CodeIOError, "failed to read profile file", err).WithDetail(path)
	}

	var file model.ProfileFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, dterrors.Wrap(dterrors.CodeParseError, "failed to parse profile JSON", err).WithDetail(path)
	}

	p := profile.NewProfile()
	phases := [2]profile.Phase{profile.Forward, profile.Backward}
	for i, byLayer := range file {
		for layerIdStr, points := range byLayer {
			layerId, err := strconv.Atoi(layerIdStr)
			if err != nil {
				return nil, dterrors.Wrap(dterrors.CodeParseError, "non-integer layerId key in profile file", err).WithDetail(layerIdStr)
			}
			for _, pt := range points {
				p.AddDatapoint(phases[i], layerId, int(pt[0]), pt[1])
			}
		}
	}

	return p, nil
}

// LoadProfileSet loads one profile file per accelerator model named in
// modelToPath and assembles a profile.ProfileSet.
func LoadProfileSet(modelToPath map[string]string) (*profile.ProfileSet, error) {
	ps := profile.NewProfileSet()
	for modelName, path := range modelToPath {
		p, err := LoadProfile(path)
		if err != nil {
			return nil, err
		}
		ps.Put(modelName, p)
	}
	return ps, nil
}
