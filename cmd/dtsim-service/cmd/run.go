package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seojinpark/dtSim/internal/service"
	"github.com/seojinpark/dtSim/internal/topology"
	"github.com/seojinpark/dtSim/pkg/config"
)

var (
	runPlanPath  string
	runProfiles  map[string]string
	runModel     string
	runGPUCount  int
	runBwGbps    float64
	runLatUsec   float64
	runHandleIDs bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single simulation and persist the result",
	Long: `Loads a plan and profile set, builds a single-switch topology
sized to --gpus, simulates the run, prints a summary and any
bottleneck suggestions, and persists the run to the configured
database and object storage.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	binName := BinName()
	runCmd.Example = `  ` + binName + ` run --plan ./plan.json --profile h100=./h100.json --gpus 8`

	runCmd.Flags().StringVar(&runPlanPath, "plan", "", "Path to the plan JSON file (required)")
	runCmd.Flags().StringToStringVar(&runProfiles, "profile", nil, "Accelerator model to profile file path, e.g. h100=./h100.json (required, repeatable)")
	runCmd.Flags().StringVar(&runModel, "model", "h100", "Accelerator model name for the generated topology")
	runCmd.Flags().IntVar(&runGPUCount, "gpus", 1, "Number of accelerators in the generated single-switch topology")
	runCmd.Flags().Float64Var(&runBwGbps, "link-bw-gbps", 1000, "Link bandwidth, in gigabits per second")
	runCmd.Flags().Float64Var(&runLatUsec, "link-lat-usec", 17, "Link latency, in microseconds")
	runCmd.Flags().BoolVar(&runHandleIDs, "handle-ids", false, "Treat plan accelerator ids as element handles instead of 1-based ranks")

	runCmd.MarkFlagRequired("plan")
	runCmd.MarkFlagRequired("profile")
}

func runRun(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	net, err := topology.BuildSingleSwitchFabric(runGPUCount, runModel, runBwGbps, runLatUsec)
	if err != nil {
		return fmt.Errorf("failed to build topology: %w", err)
	}

	svc, err := service.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	ctx := context.Background()
	if err := svc.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer svc.Stop()

	result, err := svc.RunSimulation(ctx, service.RunOptions{
		Net:         net,
		PlanPath:    runPlanPath,
		ProfilePath: runProfiles,
		HandleIDs:   runHandleIDs,
	})
	if err != nil {
		return fmt.Errorf("simulation run failed: %w", err)
	}

	log.Info("Run %s complete: makespan=%.2fus elements=%d", result.RunID, result.Report.Makespan, len(result.Report.ElementLogs))
	for _, s := range result.Suggestions {
		fmt.Fprintf(os.Stdout, "[%s] %s: %s\n", s.Severity, s.Type, s.Message)
	}

	return nil
}
