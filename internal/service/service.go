// Package service wires together configuration, persistence, storage,
// and the simulation core into the long-running dtsim-service binary.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/seojinpark/dtSim/internal/advisor"
	"github.com/seojinpark/dtSim/internal/dag"
	"github.com/seojinpark/dtSim/internal/loader"
	"github.com/seojinpark/dtSim/internal/plan"
	"github.com/seojinpark/dtSim/internal/profile"
	"github.com/seojinpark/dtSim/internal/report"
	"github.com/seojinpark/dtSim/internal/repository"
	"github.com/seojinpark/dtSim/internal/sim"
	"github.com/seojinpark/dtSim/internal/statistics"
	"github.com/seojinpark/dtSim/internal/storage"
	"github.com/seojinpark/dtSim/internal/topology"
	"github.com/seojinpark/dtSim/pkg/compression"
	"github.com/seojinpark/dtSim/pkg/config"
	"github.com/seojinpark/dtSim/pkg/model"
	"github.com/seojinpark/dtSim/pkg/utils"
)

// Service is the main application service: it owns the database and
// storage connections and drives individual simulation runs against
// them.
type Service struct {
	config  *config.Config
	logger  utils.Logger
	clock   utils.Clock
	db      *repository.Repositories
	storage storage.Storage

	running bool
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Service{
		config: cfg,
		logger: logger,
		clock:  utils.NewRealClock(),
	}, nil
}

// Initialize initializes the database connection and object storage.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	if err := s.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	s.running = true
	s.logger.Info("Service components initialized successfully")
	return nil
}

func (s *Service) initDatabase() error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	gormDB, err := repository.NewGormDB(&s.config.Database)
	if err != nil {
		return err
	}

	s.db = repository.NewRepositories(gormDB)
	s.logger.Info("Database connection established")
	return nil
}

func (s *Service) initStorage() error {
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}

	s.storage = store
	s.logger.Info("Storage initialized")
	return nil
}

// RunOptions configures one simulation run.
type RunOptions struct {
	Net         *topology.Network
	PlanPath    string
	ProfilePath map[string]string // accelerator model -> profile file path
	HandleIDs   bool
}

// RunResult is the outcome of one simulation run.
type RunResult struct {
	RunID       string
	Report      *report.Report
	Suggestions []advisor.Suggestion
}

// RunSimulation loads a plan and profile set, builds the task DAG over
// opts.Net, schedules it, derives the report and bottleneck
// suggestions, and persists a summary row. Each stage is timed with a
// phase Timer (the same pattern the teacher's hprof result builder uses
// around dominator-tree/class-statistics passes) and the summary is
// logged at Info level once the run completes.
func (s *Service) RunSimulation(ctx context.Context, opts RunOptions) (*RunResult, error) {
	timer := utils.NewTimer("simulation-run", utils.WithClock(s.clock), utils.WithLogger(s.logger))

	loaderOpts := []loader.Option{}
	if opts.HandleIDs {
		loaderOpts = append(loaderOpts, loader.WithHandleIDs(true))
	}

	var p *plan.Plan
	var profiles *profile.ProfileSet
	_, err := timer.TimeFuncWithError("load plan and profiles", func() error {
		var loadErr error
		p, loadErr = loader.LoadPlan(opts.PlanPath, opts.Net, loaderOpts...)
		if loadErr != nil {
			return fmt.Errorf("failed to load plan: %w", loadErr)
		}
		profiles, loadErr = loader.LoadProfileSet(opts.ProfilePath)
		if loadErr != nil {
			return fmt.Errorf("failed to load profile set: %w", loadErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var graph *dag.Graph
	_, err = timer.TimeFuncWithError("build task graph", func() error {
		builder := dag.NewBuilder(opts.Net, p, profiles)
		var buildErr error
		graph, buildErr = builder.Build()
		if buildErr != nil {
			return fmt.Errorf("failed to build task graph: %w", buildErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_, err = timer.TimeFuncWithError("schedule", func() error {
		scheduler := sim.NewScheduler(opts.Net, graph.Arena)
		if runErr := scheduler.Run(graph.Initial); runErr != nil {
			return fmt.Errorf("simulation run failed: %w", runErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var rep *report.Report
	var suggestions []advisor.Suggestion
	timer.TimeFunc("report and advise", func() {
		reporter := report.NewReporter(opts.Net, p, graph.Arena)
		rep = reporter.Build()

		resources := make([]statistics.ResourceSample, 0, len(rep.Utilizations()))
		for _, u := range rep.Utilizations() {
			resources = append(resources, statistics.ResourceSample{
				Handle: u.Handle, Kind: u.Kind, BusyTime: u.BusyTime, TaskCount: u.TaskCount,
			})
		}
		topN := statistics.NewTopResourcesCalculator(statistics.WithTopN(len(resources))).Calculate(resources, rep.Makespan)

		adv := advisor.NewAdvisor()
		suggestions = adv.Advise(&advisor.RuleContext{Resources: topN, Makespan: rep.Makespan})
	})

	runID := uuid.NewString()
	timer.TimeFunc("persist", func() {
		if s.db != nil {
			summary := &model.SimulationReport{
				RunID:         runID,
				Makespan:      rep.Makespan,
				TaskCount:     graph.Arena.Len(),
				ElementCount:  len(opts.Net.Elements()),
				PlanPath:      opts.PlanPath,
				CreatedAtUnix: s.clock.Now().Unix(),
			}
			if saveErr := s.db.Run.SaveRun(ctx, summary); saveErr != nil {
				s.logger.Error("Failed to persist simulation run: %v", saveErr)
			}
		}

		if s.storage != nil {
			if uploadErr := s.uploadReport(ctx, runID, rep); uploadErr != nil {
				s.logger.Error("Failed to upload report dump: %v", uploadErr)
			}
		}
	})

	timer.PrintSummary()

	return &RunResult{RunID: runID, Report: rep, Suggestions: suggestions}, nil
}

// uploadReport marshals the report as JSON, compresses it with the
// default compressor (zstd, falling back to gzip), and uploads it to
// object storage under "<runID>.json.zst" so the web UI can serve it
// back, decompressing on the way out.
func (s *Service) uploadReport(ctx context.Context, runID string, rep *report.Report) error {
	data, err := json.Marshal(rep.ToDump())
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	comp := compression.Default()
	defer compression.Close(comp)

	compressed, err := comp.Compress(data)
	if err != nil {
		return fmt.Errorf("failed to compress report (%s): %w", comp.Name(), err)
	}

	return s.storage.Upload(ctx, runID+ReportObjectSuffix, bytes.NewReader(compressed))
}

// ReportObjectSuffix is appended to a run id to form its object storage
// key. Exported so the web UI can both recognize the key it should
// request and decompress what comes back with the matching codec.
const ReportObjectSuffix = ".json.zst"

// Runs returns the run repository, for callers (the web UI) that need
// to list or fetch persisted runs directly.
func (s *Service) Runs() repository.SimulationRunRepository {
	if s.db == nil {
		return nil
	}
	return s.db.Run
}

// Storage returns the configured object storage backend, or nil if
// storage has not been initialized.
func (s *Service) Storage() storage.Storage {
	return s.storage
}

// Stop stops the service gracefully, closing the database connection.
func (s *Service) Stop() error {
	s.logger.Info("Stopping service...")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection: %v", err)
		}
	}

	s.running = false
	s.logger.Info("Service stopped")
	return nil
}

// IsRunning returns whether the service has been initialized and not
// yet stopped.
func (s *Service) IsRunning() bool {
	return s.running
}

// HealthCheck performs a health check on the service's dependencies.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}
	return nil
}
