// Package report derives the makespan, per-element task logs, and
// per-resource utilization statistics from a finished simulation run,
// and formats them for dumping.
package report

import (
	"github.com/seojinpark/dtSim/internal/dag"
	"github.com/seojinpark/dtSim/internal/plan"
	"github.com/seojinpark/dtSim/internal/profile"
	"github.com/seojinpark/dtSim/internal/statistics"
	"github.com/seojinpark/dtSim/internal/topology"
)

// ElementLog is the ordered list of tasks that touched one element
// handle.
type ElementLog struct {
	Handle  int
	TaskIDs []int
}

// Report is the finished, queryable result of one simulation run.
type Report struct {
	Makespan    float64
	ElementLogs map[int]*ElementLog
	net         *topology.Network
	arena       *dag.Arena
}

// Reporter derives a Report from a scheduled task arena. Grounded on
// simulator.py's dumpInternalState, generalized from a print routine
// into a structured, queryable result.
type Reporter struct {
	net   *topology.Network
	arena *dag.Arena
	p     *plan.Plan
}

// NewReporter creates a Reporter over a topology, the plan it was built
// from, and the scheduled task arena.
func NewReporter(net *topology.Network, p *plan.Plan, arena *dag.Arena) *Reporter {
	return &Reporter{net: net, arena: arena, p: p}
}

// Build computes the makespan (the maximum finishTime across the first
// layer's backward compute tasks, the last tasks to complete in a
// standard forward+backward chain) and per-element task logs.
func (r *Reporter) Build() *Report {
	rep := &Report{
		ElementLogs: make(map[int]*ElementLog),
		net:         r.net,
		arena:       r.arena,
	}

	firstLayerId := r.p.Layers[0].LayerId
	for _, t := range r.arena.Tasks() {
		if t.Kind == dag.Compute && t.Phase == profile.Backward && t.LayerId == firstLayerId {
			if t.FinishTime > rep.Makespan {
				rep.Makespan = t.FinishTime
			}
		}

		switch t.Kind {
		case dag.Compute:
			rep.touch(t.AcceleratorHandle, t.ID)
		case dag.Transfer:
			link, err := r.net.Link(t.LinkID)
			if err != nil {
				continue
			}
			rep.touch(link.Src, t.ID)
			rep.touch(link.Dst, t.ID)
		}
	}

	return rep
}

func (rep *Report) touch(handle, taskID int) {
	log, ok := rep.ElementLogs[handle]
	if !ok {
		log = &ElementLog{Handle: handle}
		rep.ElementLogs[handle] = log
	}
	log.TaskIDs = append(log.TaskIDs, taskID)
}

// Utilization is one element's busy-time fraction of the makespan.
type Utilization = statistics.ResourceEntry

// Utilizations computes, for every element handle that appears in the
// element logs, the fraction of the report's makespan during which it
// was busy: the sum of its tasks' [startTime, finishTime) durations,
// each task counted once per handle. A transfer hop is logged at both
// endpoints of its link, so its duration counts toward both endpoint
// elements; links get no entries of their own. The entries are then
// ranked with internal/statistics the same way the teacher ranks
// self-time functions.
func (rep *Report) Utilizations() []Utilization {
	busyByHandle := make(map[int]float64)
	countByHandle := make(map[int]int)
	seenTask := make(map[int]map[int]bool)

	for handle, log := range rep.ElementLogs {
		for _, taskID := range log.TaskIDs {
			if seenTask[handle] == nil {
				seenTask[handle] = make(map[int]bool)
			}
			if seenTask[handle][taskID] {
				continue
			}
			seenTask[handle][taskID] = true

			t := rep.arena.Task(taskID)
			if t.StartTime < 0 || t.FinishTime < 0 {
				continue
			}
			busyByHandle[handle] += t.FinishTime - t.StartTime
			countByHandle[handle]++
		}
	}

	samples := make([]statistics.ResourceSample, 0, len(busyByHandle))
	for handle, busy := range busyByHandle {
		el, err := rep.net.Element(handle)
		kind := "link"
		if err == nil {
			kind = el.Kind.String()
		}
		samples = append(samples, statistics.ResourceSample{
			Handle:    handle,
			Kind:      kind,
			BusyTime:  busy,
			TaskCount: countByHandle[handle],
		})
	}

	calc := statistics.NewTopResourcesCalculator(statistics.WithTopN(len(samples)))
	return calc.Calculate(samples, rep.Makespan).Top
}
