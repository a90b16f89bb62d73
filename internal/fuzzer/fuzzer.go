// Package fuzzer drives two independently compiled plans through an
// unbounded randomized-input stress loop. Each pipeline is warmed up once,
// its steady-state invocation is captured into an executable device graph,
// and every iteration after that only randomizes buffers and relaunches the
// graphs. Nothing is retried anywhere: any device or runtime error is fatal.
package fuzzer

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/23skdu/longbow-volley/internal/config"
	"github.com/23skdu/longbow-volley/internal/device"
	"github.com/23skdu/longbow-volley/internal/infer"
	"github.com/23skdu/longbow-volley/internal/logger"
	"github.com/23skdu/longbow-volley/internal/metrics"
)

const (
	stateLoading int32 = iota
	stateWarmingUp
	stateCapturing
	stateFuzzing
)

var stateNames = map[int32]string{
	stateLoading:   "loading",
	stateWarmingUp: "warming_up",
	stateCapturing: "capturing",
	stateFuzzing:   "fuzzing",
}

// Orchestrator owns the pipelines and the fuzz loop. The pipeline count is
// whatever the construction produced; today that is two.
type Orchestrator struct {
	cfg       config.Config
	log       *logger.Logger
	rng       *rand.Rand
	pipelines []*pipeline

	// out receives the in-place iteration counter.
	out io.Writer

	state      atomic.Int32
	iterations atomic.Uint64
}

// New performs the whole loading stage: reads both plan files, deserializes
// both engines and builds both pipelines. Any failure aborts startup; there
// is no partial run.
func New(cfg config.Config, api device.API, rt infer.Runtime, log *logger.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg: cfg,
		log: log,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		out: os.Stdout,
	}
	o.state.Store(stateLoading)

	for i, path := range []string{cfg.Plan0Path, cfg.Plan1Path} {
		name := fmt.Sprintf("plan%d", i)

		data, err := os.ReadFile(path)
		if err != nil {
			o.Close()
			return nil, errors.Wrapf(err, "read %s", path)
		}
		log.Info("loaded plan", "pipeline", name, "path", path, "bytes", len(data))

		p, err := newPipeline(name, api, rt, data, log)
		if err != nil {
			o.Close()
			return nil, err
		}
		o.pipelines = append(o.pipelines, p)
	}

	return o, nil
}

// State reports the orchestrator's current stage for the health endpoint.
func (o *Orchestrator) State() string {
	return stateNames[o.state.Load()]
}

// Iterations reports the number of completed fuzz iterations.
func (o *Orchestrator) Iterations() uint64 {
	return o.iterations.Load()
}

// Run warms up and captures each pipeline, then fuzzes until the context is
// cancelled or the configured iteration bound is hit. With the defaults
// (background context, no bound) it never returns normally.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.state.Store(stateWarmingUp)
	for _, p := range o.pipelines {
		if err := p.warmUp(); err != nil {
			return err
		}
	}

	o.state.Store(stateCapturing)
	for _, p := range o.pipelines {
		if err := p.capture(); err != nil {
			return err
		}
	}

	o.state.Store(stateFuzzing)
	o.log.Info("fuzzing", "pipelines", len(o.pipelines), "seed", o.cfg.Seed)

	for i := uint64(0); ; i++ {
		if ctx.Err() != nil {
			fmt.Fprintln(o.out)
			o.log.Info("fuzz loop stopped", "iterations", i)
			return nil
		}
		if o.cfg.MaxIterations > 0 && i >= o.cfg.MaxIterations {
			fmt.Fprintln(o.out)
			o.log.Info("iteration bound reached", "iterations", i)
			return nil
		}

		start := time.Now()
		for _, p := range o.pipelines {
			p.bindings.Randomize(o.rng, o.cfg.RandomizeOutputs)
		}
		metrics.RecordRandomize(time.Since(start))

		for _, p := range o.pipelines {
			if err := p.launch(); err != nil {
				return err
			}
		}
		for _, p := range o.pipelines {
			if err := p.sync(); err != nil {
				return err
			}
		}

		fmt.Fprintf(o.out, "\r%d", i)
		o.iterations.Store(i + 1)
		metrics.RecordIteration(time.Since(start))
	}
}

// Close tears down every pipeline.
func (o *Orchestrator) Close() {
	for _, p := range o.pipelines {
		p.Close()
	}
	o.pipelines = nil
}
