package fuzzer

import (
	"math/rand"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/23skdu/longbow-volley/internal/device"
	"github.com/23skdu/longbow-volley/internal/infer"
	"github.com/23skdu/longbow-volley/internal/logger"
)

// IOBindingSet owns every input and output buffer of one execution context.
// Buffer order matches the engine's tensor enumeration order, and each
// buffer's address is registered with the context before first use and stays
// valid for the set's entire lifetime.
type IOBindingSet struct {
	Inputs  []*Buffer
	Outputs []*Buffer
}

// NewIOBindingSet enumerates every tensor the engine declares, allocates a
// pinned buffer sized to its footprint and binds its address into the
// context. A tensor reporting neither input nor output direction means a
// corrupt or unsupported engine.
func NewIOBindingSet(api device.API, eng infer.Engine, ctx infer.ExecutionContext, log *logger.Logger) (*IOBindingSet, error) {
	set := &IOBindingSet{}

	for idx := 0; idx < eng.NbIOTensors(); idx++ {
		name := eng.IOTensorName(idx)
		desc := infer.Describe(eng, ctx, name)

		size, err := infer.Footprint(desc)
		if err != nil {
			set.Close()
			return nil, err
		}

		buf, err := NewBuffer(api, size)
		if err != nil {
			set.Close()
			return nil, errors.Wrapf(err, "tensor %q", name)
		}

		switch desc.Mode {
		case infer.IOInput:
			err = ctx.SetInputTensorAddress(name, buf.Data())
			set.Inputs = append(set.Inputs, buf)
		case infer.IOOutput:
			err = ctx.SetTensorAddress(name, buf.Data())
			set.Outputs = append(set.Outputs, buf)
		default:
			buf.Close()
			set.Close()
			return nil, errors.Errorf("tensor %q reports unsupported io mode %d", name, desc.Mode)
		}
		if err != nil {
			set.Close()
			return nil, errors.Wrapf(err, "bind tensor %q", name)
		}

		if log != nil {
			log.Debug("bound tensor", "name", name, "mode", desc.Mode.String(),
				"dtype", desc.DType.String(), "size", humanize.Bytes(uint64(size)))
		}
	}

	return set, nil
}

// Randomize refills every input buffer, and every output buffer when
// outputs is set, with pseudo-random bytes.
func (s *IOBindingSet) Randomize(rng *rand.Rand, outputs bool) {
	for _, b := range s.Inputs {
		b.Randomize(rng)
	}
	if !outputs {
		return
	}
	for _, b := range s.Outputs {
		b.Randomize(rng)
	}
}

// RandomizeAll refills inputs and outputs both.
func (s *IOBindingSet) RandomizeAll(rng *rand.Rand) {
	s.Randomize(rng, true)
}

// Len returns the total number of owned buffers.
func (s *IOBindingSet) Len() int {
	return len(s.Inputs) + len(s.Outputs)
}

func (s *IOBindingSet) Close() {
	for _, b := range s.Inputs {
		b.Close()
	}
	for _, b := range s.Outputs {
		b.Close()
	}
	s.Inputs = nil
	s.Outputs = nil
}
