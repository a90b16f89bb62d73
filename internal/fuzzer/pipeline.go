package fuzzer

import (
	"github.com/pkg/errors"

	"github.com/23skdu/longbow-volley/internal/device"
	"github.com/23skdu/longbow-volley/internal/infer"
	"github.com/23skdu/longbow-volley/internal/logger"
	"github.com/23skdu/longbow-volley/internal/metrics"
)

// pipeline is the full execution stack for one plan: engine, context, bound
// I/O buffers, stream and, after capture, the relaunchable graph. The two
// pipelines of a fuzz run share nothing.
type pipeline struct {
	name     string
	log      *logger.Logger
	engine   infer.Engine
	ctx      infer.ExecutionContext
	bindings *IOBindingSet
	stream   *device.Stream
	graph    *device.Graph
	exec     *device.GraphExec
}

func newPipeline(name string, api device.API, rt infer.Runtime, plan []byte, log *logger.Logger) (*pipeline, error) {
	p := &pipeline{name: name, log: log}

	eng, err := rt.Deserialize(plan)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %s", name)
	}
	p.engine = eng

	ctx, err := eng.CreateExecutionContext()
	if err != nil {
		p.Close()
		return nil, errors.Wrapf(err, "pipeline %s: create context", name)
	}
	p.ctx = ctx

	bindings, err := NewIOBindingSet(api, eng, ctx, log)
	if err != nil {
		p.Close()
		return nil, errors.Wrapf(err, "pipeline %s: io bindings", name)
	}
	p.bindings = bindings
	metrics.RecordPipelineBuffers(name, bindings.Len())

	stream, err := device.NewStream(api)
	if err != nil {
		p.Close()
		return nil, errors.Wrapf(err, "pipeline %s: stream", name)
	}
	p.stream = stream

	log.Info("pipeline ready", "pipeline", name,
		"inputs", len(bindings.Inputs), "outputs", len(bindings.Outputs))
	return p, nil
}

// enqueue issues one direct inference invocation. Once the pipeline has a
// captured graph, relaunch replaces direct invocation; calling this again
// would diverge from the captured command sequence.
func (p *pipeline) enqueue() error {
	if p.exec != nil {
		return errors.Errorf("pipeline %s: direct invocation after capture", p.name)
	}
	if err := p.ctx.Enqueue(p.stream); err != nil {
		return errors.Wrapf(err, "pipeline %s: enqueue", p.name)
	}
	return nil
}

// warmUp runs one invocation to completion so the runtime settles its lazy
// setup work before capture records the steady-state sequence.
func (p *pipeline) warmUp() error {
	if err := p.enqueue(); err != nil {
		return err
	}
	if err := p.stream.Synchronize(); err != nil {
		return errors.Wrapf(err, "pipeline %s: warm-up sync", p.name)
	}
	return nil
}

// capture records one invocation into an executable graph. Must follow a
// successful warm-up; capturing cold is undefined behavior in the device API.
func (p *pipeline) capture() error {
	if err := p.stream.BeginCapture(); err != nil {
		return errors.Wrapf(err, "pipeline %s: begin capture", p.name)
	}
	if err := p.enqueue(); err != nil {
		return err
	}
	graph, err := p.stream.EndCapture()
	if err != nil {
		return errors.Wrapf(err, "pipeline %s: end capture", p.name)
	}
	p.graph = graph

	exec, err := device.Instantiate(graph)
	if err != nil {
		return errors.Wrapf(err, "pipeline %s: instantiate graph", p.name)
	}
	p.exec = exec

	if err := p.stream.Synchronize(); err != nil {
		return errors.Wrapf(err, "pipeline %s: capture sync", p.name)
	}
	p.log.Info("captured execution graph", "pipeline", p.name)
	return nil
}

// launch replays the captured graph on the pipeline's stream, asynchronously.
func (p *pipeline) launch() error {
	if p.exec == nil {
		return errors.Errorf("pipeline %s: launch before capture", p.name)
	}
	if err := p.exec.Launch(p.stream); err != nil {
		metrics.RecordDeviceError("graph_launch")
		return errors.Wrapf(err, "pipeline %s: graph launch", p.name)
	}
	metrics.RecordGraphLaunch(p.name)
	return nil
}

func (p *pipeline) sync() error {
	if err := p.stream.Synchronize(); err != nil {
		metrics.RecordDeviceError("stream_synchronize")
		return errors.Wrapf(err, "pipeline %s: sync", p.name)
	}
	return nil
}

// Close releases in reverse acquisition order.
func (p *pipeline) Close() {
	p.exec.Close()
	p.graph.Close()
	p.stream.Close()
	if p.bindings != nil {
		p.bindings.Close()
	}
	if p.ctx != nil {
		p.ctx.Destroy()
		p.ctx = nil
	}
	if p.engine != nil {
		p.engine.Destroy()
		p.engine = nil
	}
}
