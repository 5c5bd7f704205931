// Package dag builds the task dependency graph that the scheduler runs:
// one Compute task per (phase, layer, replica) and Transfer tasks for
// every overlapping predecessor/successor replica pair, chained across
// the topology's shortest-hop paths.
package dag

import "github.com/seojinpark/dtSim/internal/profile"

// Kind tags a Task as a unit of on-accelerator compute or a single-hop
// data transfer.
type Kind int

const (
	Compute Kind = iota
	Transfer
)

// Unset is the sentinel for an un-dispatched readyTime/startTime/
// finishTime, matching the "-1 meaning unset" convention.
const Unset = -1.0

// Task is one node of the dependency graph. Compute and Transfer tasks
// share the lifecycle fields; kind-specific fields are zero-valued for
// the other kind.
type Task struct {
	ID   int
	Kind Kind

	ReadyTime  float64
	StartTime  float64
	FinishTime float64

	Successors                 []int
	IncompletePredecessorCount int

	// Compute fields.
	AcceleratorHandle int
	LayerId           int
	Phase             profile.Phase
	ComputeTime       float64

	// Transfer fields.
	LinkID    int
	XferBytes float64
}

// Arena owns every Task created during a build, indexed by ID.
type Arena struct {
	tasks []*Task
}

// NewArena creates an empty task arena.
func NewArena() *Arena {
	return &Arena{}
}

// Tasks returns every task in creation order. The returned slice must
// not be mutated by callers.
func (a *Arena) Tasks() []*Task {
	return a.tasks
}

// Task returns the task with the given id.
func (a *Arena) Task(id int) *Task {
	return a.tasks[id]
}

// Len returns the number of tasks in the arena.
func (a *Arena) Len() int {
	return len(a.tasks)
}

func (a *Arena) newTask(kind Kind) *Task {
	t := &Task{
		ID:         len(a.tasks),
		Kind:       kind,
		ReadyTime:  Unset,
		StartTime:  Unset,
		FinishTime: Unset,
	}
	a.tasks = append(a.tasks, t)
	return t
}

// addPredecessor records that predID must complete before task t can
// run, and increments t's incompletePredecessorCount.
func (a *Arena) addPredecessor(t *Task, predID int) {
	pred := a.tasks[predID]
	pred.Successors = append(pred.Successors, t.ID)
	t.IncompletePredecessorCount++
}

// NewTask creates a task of the given kind with unset lifecycle fields.
// Exposed alongside the Builder for test harnesses that need to
// construct tasks directly instead of through a full plan/topology
// build.
func (a *Arena) NewTask(kind Kind) *Task {
	return a.newTask(kind)
}

// AddPredecessor is the exported form of addPredecessor, for the same
// direct-construction use case as NewTask.
func (a *Arena) AddPredecessor(t *Task, predID int) {
	a.addPredecessor(t, predID)
}
