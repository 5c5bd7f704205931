package dag

import (
	"fmt"

	"github.com/seojinpark/dtSim/internal/plan"
	"github.com/seojinpark/dtSim/internal/profile"
	"github.com/seojinpark/dtSim/internal/topology"
	"github.com/seojinpark/dtSim/pkg/dterrors"
)

// Graph is the finished task DAG: the arena of every Compute and
// Transfer task, plus the initial ready set (tasks with zero
// predecessors, readyTime 0).
type Graph struct {
	Arena   *Arena
	Initial []int
}

// Builder translates a topology, plan, and profile set into a Graph.
// Grounded on simulator.py / networkEditor.py's Simulation.scheduleXfer
// and scheduleCompute, generalized to the forward+backward two-pass
// construction described for the Plan-to-DAG component.
type Builder struct {
	net      *topology.Network
	p        *plan.Plan
	profiles *profile.ProfileSet

	// OnParamSync, if set, is called once per layer immediately after
	// that layer's backward compute tasks have all been built. No
	// semantics are prescribed for it; it exists purely as a hook for
	// a future parameter-synchronization / pipelining extension.
	OnParamSync func(layerId int)

	arena *Arena

	// forwardTasks[layerId][acceleratorHandle] -> compute task id
	forwardTasks map[int]map[int]int
	// backwardTasks[layerId][acceleratorHandle] -> compute task id
	backwardTasks map[int]map[int]int
}

// NewBuilder creates a Builder over an already-built topology, a plan
// that has NOT yet had Derive called (the Builder calls it), and a
// profile set with one Profile per accelerator model referenced by the
// plan's replicas.
func NewBuilder(net *topology.Network, p *plan.Plan, profiles *profile.ProfileSet) *Builder {
	return &Builder{
		net:           net,
		p:             p,
		profiles:      profiles,
		arena:         NewArena(),
		forwardTasks:  make(map[int]map[int]int),
		backwardTasks: make(map[int]map[int]int),
	}
}

// Build runs plan.Derive(), then the forward and backward passes,
// returning the finished Graph.
func (b *Builder) Build() (*Graph, error) {
	if err := b.p.Derive(); err != nil {
		return nil, err
	}

	if err := b.forwardPass(); err != nil {
		return nil, err
	}
	if err := b.backwardPass(); err != nil {
		return nil, err
	}

	initial := make([]int, 0)
	for _, t := range b.arena.Tasks() {
		if t.IncompletePredecessorCount == 0 {
			t.ReadyTime = 0
			initial = append(initial, t.ID)
		}
	}

	return &Graph{Arena: b.arena, Initial: initial}, nil
}

func (b *Builder) accelModel(handle int) (string, error) {
	el, err := b.net.Element(handle)
	if err != nil {
		return "", err
	}
	return el.Model, nil
}

func (b *Builder) forwardPass() error {
	for _, layer := range b.p.Layers {
		for i := range layer.Replicas {
			replica := layer.Replicas[i]
			a, bEnd := layer.SampleRange(i)

			model, err := b.accelModel(replica.AcceleratorHandle)
			if err != nil {
				return err
			}
			prof, err := b.profiles.Get(model)
			if err != nil {
				return err
			}
			duration, err := prof.GetCost(profile.Forward, layer.LayerId, bEnd-a)
			if err != nil {
				return err
			}

			var preds []int
			for _, pl := range layer.PrevLayers {
				prevLayer, err := b.p.Layer(pl.LayerId)
				if err != nil {
					return err
				}
				for j := range prevLayer.Replicas {
					aPrime, bPrime := prevLayer.SampleRange(j)
					if aPrime >= bEnd {
						break
					}
					overlapBytes := plan.OverlapBytes(a, bEnd, aPrime, bPrime, pl.InputBytesPerSample)
					if overlapBytes <= 0 {
						continue
					}

					srcAccel := prevLayer.Replicas[j].AcceleratorHandle
					upstreamID, ok := b.forwardTasks[prevLayer.LayerId][srcAccel]
					if !ok {
						return dterrors.New(dterrors.CodePlanUnknownLayer, "predecessor compute task not yet built").
							WithDetail(fmt.Sprintf("layer=%d accel=%d", prevLayer.LayerId, srcAccel))
					}

					tail, err := b.expandTransfer(srcAccel, replica.AcceleratorHandle, overlapBytes, upstreamID)
					if err != nil {
						return err
					}
					preds = append(preds, tail)
				}
			}

			taskID, err := b.newComputeTask(profile.Forward, layer.LayerId, replica.AcceleratorHandle, duration, preds)
			if err != nil {
				return err
			}
			b.recordForward(layer.LayerId, replica.AcceleratorHandle, taskID)
		}
	}
	return nil
}

func (b *Builder) backwardPass() error {
	terminal := b.p.TerminalLayer()

	for i := len(b.p.Layers) - 1; i >= 0; i-- {
		layer := b.p.Layers[i]

		for r := range layer.Replicas {
			replica := layer.Replicas[r]
			a, bEnd := layer.SampleRange(r)

			model, err := b.accelModel(replica.AcceleratorHandle)
			if err != nil {
				return err
			}
			prof, err := b.profiles.Get(model)
			if err != nil {
				return err
			}
			duration, err := prof.GetCost(profile.Backward, layer.LayerId, bEnd-a)
			if err != nil {
				return err
			}

			var preds []int
			for _, nl := range layer.NextLayers {
				nextLayer, err := b.p.Layer(nl.LayerId)
				if err != nil {
					return err
				}
				for j := range nextLayer.Replicas {
					aPrime, bPrime := nextLayer.SampleRange(j)
					if aPrime >= bEnd {
						break
					}
					overlapBytes := plan.OverlapBytes(a, bEnd, aPrime, bPrime, nl.OutputBytesPerSample)
					if overlapBytes <= 0 {
						continue
					}

					srcAccel := nextLayer.Replicas[j].AcceleratorHandle
					upstreamID, ok := b.backwardTasks[nextLayer.LayerId][srcAccel]
					if !ok {
						return dterrors.New(dterrors.CodePlanUnknownLayer, "successor backward compute task not yet built").
							WithDetail(fmt.Sprintf("layer=%d accel=%d", nextLayer.LayerId, srcAccel))
					}

					tail, err := b.expandTransfer(srcAccel, replica.AcceleratorHandle, overlapBytes, upstreamID)
					if err != nil {
						return err
					}
					preds = append(preds, tail)
				}
			}

			if layer.LayerId == terminal.LayerId {
				forwardID, ok := b.forwardTasks[layer.LayerId][replica.AcceleratorHandle]
				if !ok {
					return dterrors.New(dterrors.CodePlanUnknownLayer, "terminal layer missing forward task").
						WithDetail(fmt.Sprintf("layer=%d accel=%d", layer.LayerId, replica.AcceleratorHandle))
				}
				preds = append(preds, forwardID)
			}

			taskID, err := b.newComputeTask(profile.Backward, layer.LayerId, replica.AcceleratorHandle, duration, preds)
			if err != nil {
				return err
			}
			b.recordBackward(layer.LayerId, replica.AcceleratorHandle, taskID)
		}

		if b.OnParamSync != nil {
			b.OnParamSync(layer.LayerId)
		}
	}
	return nil
}

// expandTransfer chains a transfer of xferBytes from srcAccel to
// dstAccel into one Transfer task per hop along the topology's shortest
// path, with upstreamID as the sole predecessor of the first hop and
// each hop depending on the previous. When src == dst no transfer task
// is created and upstreamID is returned directly. Returns the tail task
// id to use as the downstream compute task's predecessor.
func (b *Builder) expandTransfer(srcAccel, dstAccel int, xferBytes float64, upstreamID int) (int, error) {
	if srcAccel == dstAccel {
		return upstreamID, nil
	}

	// Fast reachability pre-check over the bitset computed once at
	// topology build time, ahead of the hop-list lookup below.
	if !b.net.Reachable(srcAccel).Test(dstAccel) {
		return 0, dterrors.New(dterrors.CodeTopologyUnreachable, "no path between replica accelerators").
			WithDetail(fmt.Sprintf("%d->%d", srcAccel, dstAccel))
	}

	hops, err := b.net.Path(srcAccel, dstAccel)
	if err != nil {
		return 0, err
	}

	cursor := srcAccel
	prev := upstreamID
	for _, hop := range hops {
		link, ok := b.net.DirectLink(cursor, hop)
		if !ok {
			return 0, dterrors.New(dterrors.CodeTopologyUnreachable, "path hop has no direct link").
				WithDetail(fmt.Sprintf("%d->%d", cursor, hop))
		}
		taskID, err := b.newTransferTask(link.ID, xferBytes, prev)
		if err != nil {
			return 0, err
		}
		prev = taskID
		cursor = hop
	}

	return prev, nil
}

func (b *Builder) newComputeTask(phase profile.Phase, layerId, accelHandle int, duration float64, preds []int) (int, error) {
	if _, ok := b.tasksFor(phase)[layerId][accelHandle]; ok {
		return 0, dterrors.New(dterrors.CodePlanInvalidReplica, "duplicate compute task for (phase, layer, accelerator)").
			WithDetail(fmt.Sprintf("phase=%s layer=%d accel=%d", phase, layerId, accelHandle))
	}

	t := b.arena.newTask(Compute)
	t.AcceleratorHandle = accelHandle
	t.LayerId = layerId
	t.Phase = phase
	t.ComputeTime = duration

	for _, predID := range preds {
		b.arena.addPredecessor(t, predID)
	}

	return t.ID, nil
}

func (b *Builder) newTransferTask(linkID int, xferBytes float64, upstreamID int) (int, error) {
	if xferBytes <= 0 {
		return 0, dterrors.New(dterrors.CodeSchedulerInvalidTransfer, "xferBytes must be strictly positive").
			WithDetail(fmt.Sprintf("link=%d bytes=%f", linkID, xferBytes))
	}

	t := b.arena.newTask(Transfer)
	t.LinkID = linkID
	t.XferBytes = xferBytes

	b.arena.addPredecessor(t, upstreamID)

	return t.ID, nil
}

func (b *Builder) tasksFor(phase profile.Phase) map[int]map[int]int {
	if phase == profile.Forward {
		return b.forwardTasks
	}
	return b.backwardTasks
}

func (b *Builder) recordForward(layerId, accelHandle, taskID int) {
	if b.forwardTasks[layerId] == nil {
		b.forwardTasks[layerId] = make(map[int]int)
	}
	b.forwardTasks[layerId][accelHandle] = taskID
}

func (b *Builder) recordBackward(layerId, accelHandle, taskID int) {
	if b.backwardTasks[layerId] == nil {
		b.backwardTasks[layerId] = make(map[int]int)
	}
	b.backwardTasks[layerId][accelHandle] = taskID
}
