package device

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/23skdu/longbow-volley/internal/metrics"
)

// Host is a pure-Go simulation of the device contract. Streams execute
// submitted work immediately and in order, capture records work instead of
// running it, and graph launches replay the recorded work. It backs the
// default (non-cuda) build and every test.
type Host struct {
	mu     sync.Mutex
	allocs map[unsafe.Pointer][]byte
	pinned int64
}

func NewHost() *Host {
	return &Host{allocs: make(map[unsafe.Pointer][]byte)}
}

// PinnedBytes reports the bytes currently held as simulated pinned memory.
func (d *Host) PinnedBytes() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pinned
}

func (d *Host) MallocHost(size int64) (unsafe.Pointer, error) {
	if size <= 0 {
		return nil, errors.Errorf("host alloc: invalid size %d", size)
	}
	b := make([]byte, size)
	p := unsafe.Pointer(&b[0])
	d.mu.Lock()
	d.allocs[p] = b
	d.pinned += size
	metrics.RecordPinnedMemory(d.pinned)
	d.mu.Unlock()
	return p, nil
}

func (d *Host) FreeHost(p unsafe.Pointer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.allocs[p]
	if !ok {
		return errors.New("host free: unknown or already freed pointer")
	}
	delete(d.allocs, p)
	d.pinned -= int64(len(b))
	metrics.RecordPinnedMemory(d.pinned)
	return nil
}

type hostStream struct {
	mu        sync.Mutex
	destroyed bool
	capturing bool
	captured  []func()
}

type hostGraph struct {
	destroyed bool
	ops       []func()
}

type hostExec struct {
	destroyed bool
	ops       []func()
}

func (d *Host) StreamCreate() (StreamHandle, error) {
	return unsafe.Pointer(&hostStream{}), nil
}

func (d *Host) StreamDestroy(h StreamHandle) error {
	s := (*hostStream)(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return errors.New("host stream: destroy of destroyed stream")
	}
	if s.capturing {
		return errors.New("host stream: destroy while capture active")
	}
	s.destroyed = true
	return nil
}

func (d *Host) StreamSynchronize(h StreamHandle) error {
	s := (*hostStream)(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return errors.New("host stream: synchronize of destroyed stream")
	}
	if s.capturing {
		return errors.New("host stream: synchronize while capture active")
	}
	// Submitted work ran at submit time; nothing outstanding.
	return nil
}

func (d *Host) StreamBeginCapture(h StreamHandle) error {
	s := (*hostStream)(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return errors.New("host stream: capture on destroyed stream")
	}
	if s.capturing {
		return errors.New("host stream: capture already active")
	}
	s.capturing = true
	s.captured = nil
	return nil
}

func (d *Host) StreamEndCapture(h StreamHandle) (GraphHandle, error) {
	s := (*hostStream)(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.capturing {
		return nil, errors.New("host stream: end capture without active capture")
	}
	g := &hostGraph{ops: s.captured}
	s.capturing = false
	s.captured = nil
	return unsafe.Pointer(g), nil
}

func (d *Host) GraphInstantiate(gh GraphHandle) (ExecHandle, error) {
	g := (*hostGraph)(gh)
	if g.destroyed {
		return nil, errors.New("host graph: instantiate of destroyed graph")
	}
	e := &hostExec{ops: append([]func(){}, g.ops...)}
	return unsafe.Pointer(e), nil
}

func (d *Host) GraphDestroy(gh GraphHandle) error {
	g := (*hostGraph)(gh)
	if g.destroyed {
		return errors.New("host graph: destroy of destroyed graph")
	}
	g.destroyed = true
	g.ops = nil
	return nil
}

func (d *Host) GraphExecLaunch(eh ExecHandle, h StreamHandle) error {
	e := (*hostExec)(eh)
	if e.destroyed {
		return errors.New("host graph exec: launch of destroyed exec")
	}
	for _, op := range e.ops {
		if err := d.Submit(h, op); err != nil {
			return err
		}
	}
	return nil
}

func (d *Host) GraphExecDestroy(eh ExecHandle) error {
	e := (*hostExec)(eh)
	if e.destroyed {
		return errors.New("host graph exec: destroy of destroyed exec")
	}
	e.destroyed = true
	e.ops = nil
	return nil
}

// Submit enqueues one unit of work on the stream. Outside capture it runs
// immediately (the simulation completes work synchronously); during capture
// it is recorded for later replay. This is the hook the simulated inference
// runtime enqueues through.
func (d *Host) Submit(h StreamHandle, op func()) error {
	s := (*hostStream)(h)
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errors.New("host stream: submit on destroyed stream")
	}
	if s.capturing {
		s.captured = append(s.captured, op)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	op()
	return nil
}
