package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/23skdu/longbow-volley/internal/config"
	"github.com/23skdu/longbow-volley/internal/fuzzer"
	"github.com/23skdu/longbow-volley/internal/logger"
	"github.com/23skdu/longbow-volley/internal/monitoring"
)

var (
	plan0Path     = flag.String("plan0", "model0.plan", "Path to the first serialized plan")
	plan1Path     = flag.String("plan1", "model1.plan", "Path to the second serialized plan")
	seed          = flag.Int64("seed", 0, "Seed for the deterministic input generator")
	maxIterations = flag.Uint64("n", 0, "Stop after N iterations (0 = run forever)")
	skipOutputs   = flag.Bool("skip-output-randomize", false, "Do not randomize output buffers each iteration")
	metricsAddr   = flag.String("metrics", ":9090", "Address to serve Prometheus metrics and /healthz")
	logLevel      = flag.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	logFormat     = flag.String("log-format", "console", "Log format (console or json)")
)

func main() {
	flag.Parse()
	logger.Setup(*logLevel, *logFormat)

	cfg := config.Default()
	cfg.Plan0Path = *plan0Path
	cfg.Plan1Path = *plan1Path
	cfg.Seed = *seed
	cfg.MaxIterations = *maxIterations
	cfg.RandomizeOutputs = !*skipOutputs
	cfg.MetricsAddr = *metricsAddr

	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("invalid configuration", "error", err)
	}

	api, rt, err := newBackend(logger.Log)
	if err != nil {
		logger.Log.Fatal("failed to initialize device backend", "error", err)
	}

	orch, err := fuzzer.New(cfg, api, rt, logger.Log)
	if err != nil {
		logger.Log.Fatal("failed to load plans", "error", err)
	}
	defer orch.Close()

	// Metrics and health endpoints
	go func() {
		mux := http.NewServeMux()
		monitoring.NewHealthHandler(orch).Register(mux)
		logger.Log.Info("metrics serving", "addr", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Log.Warn("metrics server stopped", "error", err)
		}
	}()

	// SIGINT/SIGTERM stop the loop at the next iteration boundary. A wait
	// stuck inside the device never observes this; that hang is a finding.
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Log.Info("received signal, stopping", "signal", sig.String())
		cancel()
	}()

	if err := orch.Run(ctx); err != nil {
		logger.Log.Fatal("fuzzing aborted", "error", err)
	}
}
