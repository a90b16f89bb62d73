package infer

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/23skdu/longbow-volley/internal/device"
	"github.com/23skdu/longbow-volley/internal/logger"
)

// SimRuntime implements the runtime contract in pure Go over the host device
// simulation. It deserializes the simulated plan format and executes each
// enqueued inference pass as an identity transform: input bytes copied into
// the output buffers. It backs the default (non-cuda) build and the tests.
type SimRuntime struct {
	host *device.Host
	rec  logger.Recorder
}

func NewSimRuntime(host *device.Host, rec logger.Recorder) *SimRuntime {
	return &SimRuntime{host: host, rec: rec}
}

func (r *SimRuntime) record(format string, args ...interface{}) {
	if r.rec != nil {
		r.rec.Record(fmt.Sprintf(format, args...))
	}
}

func (r *SimRuntime) Deserialize(data []byte) (Engine, error) {
	tensors, err := parsePlan(data)
	if err != nil {
		return nil, errors.Wrap(err, "deserialize plan")
	}
	r.record("deserialized plan: %d io tensors", len(tensors))
	return &simEngine{rt: r, tensors: tensors}, nil
}

type simEngine struct {
	rt        *SimRuntime
	tensors   []PlanTensor
	destroyed bool
}

func (e *simEngine) NbIOTensors() int { return len(e.tensors) }

func (e *simEngine) IOTensorName(idx int) string { return e.tensors[idx].Name }

func (e *simEngine) TensorIOMode(name string) TensorIOMode {
	if t := e.lookup(name); t != nil {
		return t.Mode
	}
	return IONone
}

func (e *simEngine) lookup(name string) *PlanTensor {
	for i := range e.tensors {
		if e.tensors[i].Name == name {
			return &e.tensors[i]
		}
	}
	return nil
}

func (e *simEngine) CreateExecutionContext() (ExecutionContext, error) {
	if e.destroyed {
		return nil, errors.New("create context on destroyed engine")
	}
	return &simContext{eng: e, addrs: make(map[string]unsafe.Pointer)}, nil
}

func (e *simEngine) Destroy() {
	e.destroyed = true
	e.tensors = nil
}

type simContext struct {
	eng   *simEngine
	addrs map[string]unsafe.Pointer
}

// TensorShape resolves dynamic placeholders to one, the way a real context
// reports concrete extents once an optimization profile is selected.
func (c *simContext) TensorShape(name string) []int64 {
	t := c.eng.lookup(name)
	if t == nil {
		return nil
	}
	dims := make([]int64, len(t.Dims))
	for i, d := range t.Dims {
		if d < 0 {
			d = 1
		}
		dims[i] = d
	}
	return dims
}

func (c *simContext) TensorDataType(name string) DataType {
	if t := c.eng.lookup(name); t != nil {
		return t.DType
	}
	return DataType(0xFF)
}

func (c *simContext) TensorFormat(name string) TensorFormat {
	if t := c.eng.lookup(name); t != nil {
		return t.Format
	}
	return FormatLinear
}

func (c *simContext) ComponentsPerElement(name string) int {
	if t := c.eng.lookup(name); t != nil {
		return int(t.ComponentsPerElement)
	}
	return 0
}

func (c *simContext) SetInputTensorAddress(name string, p unsafe.Pointer) error {
	t := c.eng.lookup(name)
	if t == nil {
		return errors.Errorf("unknown tensor %q", name)
	}
	if t.Mode != IOInput {
		return errors.Errorf("tensor %q is not an input", name)
	}
	c.addrs[name] = p
	return nil
}

func (c *simContext) SetTensorAddress(name string, p unsafe.Pointer) error {
	if c.eng.lookup(name) == nil {
		return errors.Errorf("unknown tensor %q", name)
	}
	c.addrs[name] = p
	return nil
}

// Enqueue submits one identity pass onto the stream: the i-th input's bytes
// are copied into the i-th output (the last input feeds any extra outputs).
// Fails if any declared tensor has no bound address.
func (c *simContext) Enqueue(s *device.Stream) error {
	var inputs, outputs [][]byte
	for _, t := range c.eng.tensors {
		p, ok := c.addrs[t.Name]
		if !ok || p == nil {
			return errors.Errorf("enqueue rejected: tensor %q has no bound address", t.Name)
		}
		size, err := Footprint(Describe(c.eng, c, t.Name))
		if err != nil {
			return err
		}
		view := unsafe.Slice((*byte)(p), size)
		if t.Mode == IOInput {
			inputs = append(inputs, view)
		} else {
			outputs = append(outputs, view)
		}
	}

	op := func() {
		for i, out := range outputs {
			if len(inputs) == 0 {
				break
			}
			src := inputs[min(i, len(inputs)-1)]
			copy(out, src)
		}
	}
	if err := c.eng.rt.host.Submit(s.Handle(), op); err != nil {
		return errors.Wrap(err, "enqueue")
	}
	c.eng.rt.record("enqueued inference pass: %d inputs, %d outputs", len(inputs), len(outputs))
	return nil
}

func (c *simContext) Destroy() {
	c.addrs = nil
}
