// Command dtsim is a minimal, flag-free wrapper around the simulation
// core: invoked with no arguments it runs a small built-in demo
// scenario; invoked with a profile path and a plan path it loads,
// simulates, and reports on them.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/seojinpark/dtSim/internal/dag"
	"github.com/seojinpark/dtSim/internal/loader"
	"github.com/seojinpark/dtSim/internal/plan"
	"github.com/seojinpark/dtSim/internal/profile"
	"github.com/seojinpark/dtSim/internal/report"
	"github.com/seojinpark/dtSim/internal/sim"
	"github.com/seojinpark/dtSim/internal/topology"
	"github.com/seojinpark/dtSim/pkg/model"
)

const demoAcceleratorModel = "h100"

func main() {
	switch len(os.Args) {
	case 1:
		os.Exit(runDemo())
	case 3:
		os.Exit(runFromFiles(os.Args[1], os.Args[2]))
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [<profile_path> <plan_path>]\n", os.Args[0])
}

// runDemo builds a small two-layer, two-accelerator scenario in code
// and reports on it, so the binary produces useful output with zero
// setup.
func runDemo() int {
	net, err := topology.BuildSingleSwitchFabric(2, demoAcceleratorModel, 1000, 17)
	if err != nil {
		return fail(err)
	}
	accelerators := net.Accelerators()

	embed := &plan.Layer{
		LayerId:    1,
		Name:       "embed",
		ModelBytes: 1000,
		Replicas: []plan.Replica{
			{AcceleratorHandle: accelerators[0].Handle, LocalBatch: 32},
			{AcceleratorHandle: accelerators[1].Handle, LocalBatch: 32},
		},
	}
	head := &plan.Layer{
		LayerId:    2,
		Name:       "head",
		ModelBytes: 2000,
		PrevLayers: []plan.PrevLayer{{LayerId: 1, InputBytesPerSample: 4}},
		Replicas: []plan.Replica{
			{AcceleratorHandle: accelerators[0].Handle, LocalBatch: 64},
		},
	}

	p, err := plan.NewPlan([]*plan.Layer{embed, head})
	if err != nil {
		return fail(err)
	}

	prof := profile.NewProfile()
	prof.AddDatapoint(profile.Forward, 1, 32, 50)
	prof.AddDatapoint(profile.Forward, 2, 64, 120)
	prof.AddDatapoint(profile.Backward, 1, 32, 40)
	prof.AddDatapoint(profile.Backward, 2, 64, 100)

	profiles := profile.NewProfileSet()
	profiles.Put(demoAcceleratorModel, prof)

	return simulateAndReport(net, p, profiles)
}

// runFromFiles loads a plan and profile from disk. The topology is
// sized to the plan's largest accelerator id, built as a single
// switch fabric of the demo accelerator model, since the CLI contract
// takes no topology description of its own.
func runFromFiles(profilePath, planPath string) int {
	gpuCount, err := maxAcceleratorID(planPath)
	if err != nil {
		return fail(err)
	}

	net, err := topology.BuildSingleSwitchFabric(gpuCount, demoAcceleratorModel, 1000, 17)
	if err != nil {
		return fail(err)
	}

	p, err := loader.LoadPlan(planPath, net)
	if err != nil {
		return fail(err)
	}

	prof, err := loader.LoadProfile(profilePath)
	if err != nil {
		return fail(err)
	}
	profiles := profile.NewProfileSet()
	profiles.Put(demoAcceleratorModel, prof)

	return simulateAndReport(net, p, profiles)
}

func simulateAndReport(net *topology.Network, p *plan.Plan, profiles *profile.ProfileSet) int {
	builder := dag.NewBuilder(net, p, profiles)
	graph, err := builder.Build()
	if err != nil {
		return fail(err)
	}

	scheduler := sim.NewScheduler(net, graph.Arena)
	if err := scheduler.Run(graph.Initial); err != nil {
		return fail(err)
	}

	reporter := report.NewReporter(net, p, graph.Arena)
	rep := reporter.Build()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep.ToDump()); err != nil {
		return fail(err)
	}
	return 0
}

// maxAcceleratorID scans a plan file's raw assigned-accelerator ids
// (without resolving them against a topology) to size a default
// single-switch fabric big enough to host the plan.
func maxAcceleratorID(planPath string) (int, error) {
	data, err := os.ReadFile(planPath)
	if err != nil {
		return 0, err
	}

	var file model.PlanFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, err
	}

	max := 0
	for _, layer := range file {
		for _, replica := range layer.AssignedAccelerators {
			if replica.ID > max {
				max = replica.ID
			}
		}
	}
	if max == 0 {
		max = 1
	}
	return max, nil
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return 1
}
