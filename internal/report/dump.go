package report

import (
	"github.com/seojinpark/dtSim/internal/dag"
	"github.com/seojinpark/dtSim/pkg/writer"
)

// TaskDump is the JSON-serializable form of one dispatched task.
type TaskDump struct {
	ID                int     `json:"id"`
	Kind              string  `json:"kind"`
	ReadyTime         float64 `json:"readyTime"`
	StartTime         float64 `json:"startTime"`
	FinishTime        float64 `json:"finishTime"`
	AcceleratorHandle int     `json:"acceleratorHandle,omitempty"`
	LayerId           int     `json:"layerId,omitempty"`
	Phase             string  `json:"phase,omitempty"`
	LinkID            int     `json:"linkId,omitempty"`
	XferBytes         float64 `json:"xferBytes,omitempty"`
}

// Dump is the JSON-serializable form of a full Report.
type Dump struct {
	Makespan     float64       `json:"makespan"`
	Tasks        []TaskDump    `json:"tasks"`
	Utilizations []Utilization `json:"utilizations"`
	ElementLogs  map[int][]int `json:"elementLogs"`
}

// ToDump renders the report (and its originating arena) into the
// serializable Dump form.
func (rep *Report) ToDump() Dump {
	d := Dump{
		Makespan:    rep.Makespan,
		Tasks:       make([]TaskDump, 0, rep.arena.Len()),
		ElementLogs: make(map[int][]int, len(rep.ElementLogs)),
	}

	for _, t := range rep.arena.Tasks() {
		td := TaskDump{
			ID:         t.ID,
			ReadyTime:  t.ReadyTime,
			StartTime:  t.StartTime,
			FinishTime: t.FinishTime,
		}
		if t.Kind == dag.Compute {
			td.Kind = "compute"
			td.AcceleratorHandle = t.AcceleratorHandle
			td.LayerId = t.LayerId
			td.Phase = t.Phase.String()
		} else {
			td.Kind = "transfer"
			td.LinkID = t.LinkID
			td.XferBytes = t.XferBytes
		}
		d.Tasks = append(d.Tasks, td)
	}

	for handle, log := range rep.ElementLogs {
		d.ElementLogs[handle] = log.TaskIDs
	}

	d.Utilizations = rep.Utilizations()

	return d
}

// WriteJSON writes the report as pretty-printed JSON to filepath, using
// the shared pkg/writer.JSONWriter.
func (rep *Report) WriteJSON(filepath string) error {
	w := writer.NewPrettyJSONWriter[Dump]()
	return w.WriteToFile(rep.ToDump(), filepath)
}
