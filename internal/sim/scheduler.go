// Package sim implements the event-driven scheduler: a ready-time
// min-heap that dispatches compute and transfer tasks, advances
// per-resource busy-until state, and propagates ready times to
// successors.
package sim

import (
	"container/heap"
	"fmt"

	"github.com/seojinpark/dtSim/internal/dag"
	"github.com/seojinpark/dtSim/internal/topology"
	"github.com/seojinpark/dtSim/pkg/dterrors"
)

// readyItem is one entry in the dispatch heap: a task id ordered by
// (readyTime, insertion order) for deterministic tie-breaking.
type readyItem struct {
	taskID    int
	readyTime float64
	seq       int64
}

type readyHeap []readyItem

func (h readyHeap) Len() int { return len(h) }
func (h readyHeap) Less(i, j int) bool {
	if h[i].readyTime != h[j].readyTime {
		return h[i].readyTime < h[j].readyTime
	}
	return h[i].seq < h[j].seq
}
func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *readyHeap) Push(x any)   { *h = append(*h, x.(readyItem)) }
func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler runs the dispatch loop over a built dag.Graph.
type Scheduler struct {
	net   *topology.Network
	arena *dag.Arena

	acceleratorBusyUntil map[int]float64
	linkBusyUntil        map[int]float64

	nextSeq int64
}

// NewScheduler creates a Scheduler for the given topology and task
// arena.
func NewScheduler(net *topology.Network, arena *dag.Arena) *Scheduler {
	return &Scheduler{
		net:                  net,
		arena:                arena,
		acceleratorBusyUntil: make(map[int]float64),
		linkBusyUntil:        make(map[int]float64),
	}
}

// Run dispatches every task reachable from the initial ready set,
// assigning start/finish times in place on the arena's tasks.
func (s *Scheduler) Run(initial []int) error {
	h := &readyHeap{}
	heap.Init(h)

	for _, id := range initial {
		s.push(h, id, s.arena.Task(id).ReadyTime)
	}

	dispatched := 0
	for h.Len() > 0 {
		item := heap.Pop(h).(readyItem)
		task := s.arena.Task(item.taskID)

		if item.readyTime != task.ReadyTime {
			return dterrors.New(dterrors.CodeSchedulerReadyInconsistent, "ready time changed after enqueue").
				WithDetail(fmt.Sprintf("task=%d queued=%v now=%v", task.ID, item.readyTime, task.ReadyTime))
		}

		if task.StartTime != dag.Unset || task.FinishTime != dag.Unset {
			return dterrors.New(dterrors.CodeSchedulerDoubleDispatch, "task dispatched twice").
				WithDetail(fmt.Sprintf("task=%d", task.ID))
		}

		switch task.Kind {
		case dag.Compute:
			s.dispatchCompute(task)
		case dag.Transfer:
			if err := s.dispatchTransfer(task); err != nil {
				return err
			}
		}
		dispatched++

		for _, succID := range task.Successors {
			succ := s.arena.Task(succID)
			succ.IncompletePredecessorCount--
			if succ.IncompletePredecessorCount < 0 {
				return dterrors.New(dterrors.CodeSchedulerCountUnderflow, "predecessor count underflow").
					WithDetail(fmt.Sprintf("task=%d", succ.ID))
			}
			if succ.IncompletePredecessorCount == 0 {
				s.push(h, succ.ID, succ.ReadyTime)
			}
		}
	}

	if dispatched != s.arena.Len() {
		return dterrors.New(dterrors.CodeSchedulerReadyInconsistent, "not every task was dispatched").
			WithDetail(fmt.Sprintf("dispatched=%d total=%d", dispatched, s.arena.Len()))
	}

	return nil
}

func (s *Scheduler) push(h *readyHeap, taskID int, readyTime float64) {
	heap.Push(h, readyItem{taskID: taskID, readyTime: readyTime, seq: s.nextSeq})
	s.nextSeq++
}

func (s *Scheduler) dispatchCompute(task *dag.Task) {
	A := task.AcceleratorHandle
	start := task.ReadyTime
	if busy := s.acceleratorBusyUntil[A]; busy > start {
		start = busy
	}
	finish := start + task.ComputeTime

	task.StartTime = start
	task.FinishTime = finish
	s.acceleratorBusyUntil[A] = finish

	for _, succID := range task.Successors {
		succ := s.arena.Task(succID)
		if finish > succ.ReadyTime {
			succ.ReadyTime = finish
		}
	}
}

func (s *Scheduler) dispatchTransfer(task *dag.Task) error {
	if task.XferBytes <= 0 {
		return dterrors.New(dterrors.CodeSchedulerInvalidTransfer, "transfer with non-positive bytes").
			WithDetail(fmt.Sprintf("task=%d", task.ID))
	}

	link, err := s.net.Link(task.LinkID)
	if err != nil {
		return err
	}

	start := task.ReadyTime
	if busy := s.linkBusyUntil[link.ID]; busy > start {
		start = busy
	}
	finish := start + link.CalcXferTime(task.XferBytes)

	task.StartTime = start
	task.FinishTime = finish
	// Pipeline rule: the link accepts new ingress once the last byte of
	// this transfer has entered, not once it has exited.
	s.linkBusyUntil[link.ID] = finish - link.LatUsec

	for _, succID := range task.Successors {
		succ := s.arena.Task(succID)
		var readyAt float64
		if succ.Kind == dag.Transfer {
			readyAt = start + link.LatUsec
		} else {
			readyAt = finish
		}
		if readyAt > succ.ReadyTime {
			succ.ReadyTime = readyAt
		}
	}

	return nil
}
