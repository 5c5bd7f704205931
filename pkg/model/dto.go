// Package model holds the JSON wire types exchanged with the files and
// services around the simulation core: plan files, profile files, and
// simulation run summaries.
package model

// PrevLayerDTO is one predecessor edge as it appears in a plan file.
type PrevLayerDTO struct {
	LayerId             int     `json:"LayerId"`
	InputBytesPerSample float64 `json:"InputBytesPerSample"`
}

// ReplicaDTO is one accelerator assignment as it appears in a plan
// file's assignedAccelerators list.
type ReplicaDTO struct {
	ID         int `json:"id"`
	LocalBatch int `json:"localBatch"`
}

// LayerDTO is one layer object in a plan file.
type LayerDTO struct {
	LayerId              int            `json:"layerId"`
	Name                 string         `json:"name"`
	ModelBytes           float64        `json:"modelBytes"`
	PrevLayers           []PrevLayerDTO `json:"prevLayers"`
	AssignedAccelerators []ReplicaDTO   `json:"assignedAccelerators"`
}

// PlanFile is the top-level shape of a plan JSON file: an array of
// layer objects.
type PlanFile []LayerDTO

// DatapointDTO is one [batch, time] pair as it appears in a profile
// file.
type DatapointDTO [2]float64

// ProfileFile is the top-level shape of a profile JSON file: a
// two-element array [forwardMap, backwardMap], each keying layerId (as
// a string) to a list of datapoints sorted by batch ascending.
type ProfileFile [2]map[string][]DatapointDTO

// SimulationReport summarizes one completed run for persistence and
// external consumption; it does not duplicate the full per-task dump
// (see internal/report.Dump for that).
type SimulationReport struct {
	RunID         string  `json:"runId"`
	Makespan      float64 `json:"makespan"`
	TaskCount     int     `json:"taskCount"`
	ElementCount  int     `json:"elementCount"`
	PlanPath      string  `json:"planPath"`
	ProfilePath   string  `json:"profilePath"`
	CreatedAtUnix int64   `json:"createdAtUnix"`
}
