// dtsim-service wires this package in behind the --pprof flag family on
// cmd/dtsim-service's root command (see buildPprofConfig), so a `run`,
// `sweep`, or `serve` invocation can self-profile without a separate
// profiling harness:
//
//	cfg := pprof.DefaultConfig()
//	cfg.Enabled = true
//	cfg.Mode = pprof.ModeFile
//
//	collector, err := pprof.NewCollector(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := collector.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer collector.Stop()
//
// HTTP mode exposes the same endpoints over a dedicated listener instead,
// for attaching `go tool pprof` to a `serve`/`sweep` process while it runs:
//
//	cfg.Mode = pprof.ModeHTTP
//	cfg.HTTPConfig.Addr = ":6061"
package pprof

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Global collector for convenience functions
var globalCollector *Collector

// StartGlobal starts a global pprof collector with the given config.
// It also sets up signal handling for graceful shutdown.
func StartGlobal(cfg *Config) error {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	collector, err := NewCollector(cfg)
	if err != nil {
		return err
	}

	if err := collector.Start(); err != nil {
		return err
	}

	globalCollector = collector

	// Setup signal handling for graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		StopGlobal()
	}()

	return nil
}

// StopGlobal stops the global pprof collector.
func StopGlobal() error {
	if globalCollector == nil {
		return nil
	}

	err := globalCollector.Stop()
	globalCollector = nil
	return err
}

// GetGlobal returns the global collector.
func GetGlobal() *Collector {
	return globalCollector
}

// RunWithPprof runs a function with pprof collection.
// It starts the collector before running the function and stops it after.
func RunWithPprof(cfg *Config, fn func(ctx context.Context) error) error {
	if cfg == nil || !cfg.Enabled {
		return fn(context.Background())
	}

	collector, err := NewCollector(cfg)
	if err != nil {
		return err
	}

	if err := collector.Start(); err != nil {
		return err
	}
	defer collector.Stop()

	return fn(collector.Context())
}
