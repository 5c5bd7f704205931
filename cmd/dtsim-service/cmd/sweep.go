package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/seojinpark/dtSim/internal/service"
	"github.com/seojinpark/dtSim/internal/topology"
	"github.com/seojinpark/dtSim/pkg/config"
	"github.com/seojinpark/dtSim/pkg/parallel"
)

var sweepScenariosPath string

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a batch of independent simulation scenarios concurrently",
	Long: `Reads a YAML file describing N independent single-iteration
scenarios (each its own topology, plan, and profile set) and runs them
concurrently with a bounded worker pool, persisting every run and
printing a comparison table. This compares configurations across runs;
it is not multi-iteration pipelining within one run.`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	binName := BinName()
	sweepCmd.Example = `  ` + binName + ` sweep --scenarios ./scenarios.yaml`

	sweepCmd.Flags().StringVar(&sweepScenariosPath, "scenarios", "", "Path to the scenario sweep YAML file (required)")
	sweepCmd.MarkFlagRequired("scenarios")
}

// scenarioSpec is one entry of a sweep YAML file.
type scenarioSpec struct {
	Name      string            `yaml:"name"`
	PlanPath  string            `yaml:"plan"`
	Profiles  map[string]string `yaml:"profiles"`
	Model     string            `yaml:"model"`
	GPUCount  int               `yaml:"gpus"`
	BwGbps    float64           `yaml:"link_bw_gbps"`
	LatUsec   float64           `yaml:"link_lat_usec"`
	HandleIDs bool              `yaml:"handle_ids"`
}

func loadScenarios(path string) ([]scenarioSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenarios []scenarioSpec
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}

	for i := range scenarios {
		if scenarios[i].Model == "" {
			scenarios[i].Model = "h100"
		}
		if scenarios[i].GPUCount == 0 {
			scenarios[i].GPUCount = 1
		}
		if scenarios[i].BwGbps == 0 {
			scenarios[i].BwGbps = 1000
		}
		if scenarios[i].LatUsec == 0 {
			scenarios[i].LatUsec = 17
		}
	}

	return scenarios, nil
}

type sweepOutcome struct {
	Scenario scenarioSpec
	Result   *service.RunResult
}

func runSweep(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	scenarios, err := loadScenarios(sweepScenariosPath)
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios found in %s", sweepScenariosPath)
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

	poolCfg := parallel.DefaultPoolConfig().WithWorkers(cfg.Sweep.WorkerCount)
	pool := parallel.NewWorkerPool[scenarioSpec, sweepOutcome](poolCfg)

	results := pool.ExecuteFunc(ctx, scenarios, func(ctx context.Context, sc scenarioSpec) (sweepOutcome, error) {
		net, err := topology.BuildSingleSwitchFabric(sc.GPUCount, sc.Model, sc.BwGbps, sc.LatUsec)
		if err != nil {
			return sweepOutcome{}, fmt.Errorf("%s: %w", sc.Name, err)
		}

		result, err := svc.RunSimulation(ctx, service.RunOptions{
			Net:         net,
			PlanPath:    sc.PlanPath,
			ProfilePath: sc.Profiles,
			HandleIDs:   sc.HandleIDs,
		})
		if err != nil {
			return sweepOutcome{}, fmt.Errorf("%s: %w", sc.Name, err)
		}

		return sweepOutcome{Scenario: sc, Result: result}, nil
	})

	fmt.Fprintf(os.Stdout, "%-20s %-12s %10s %8s\n", "SCENARIO", "RUN ID", "MAKESPAN", "ELEMS")
	var failures int
	for _, r := range results {
		if r.Error != nil {
			log.Error("scenario failed: %v", r.Error)
			failures++
			continue
		}
		fmt.Fprintf(os.Stdout, "%-20s %-12s %10.2f %8d\n",
			r.Result.Scenario.Name, r.Result.Result.RunID, r.Result.Result.Report.Makespan, len(r.Result.Result.Report.ElementLogs))
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failures, len(scenarios))
	}
	return nil
}
