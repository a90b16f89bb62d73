// Package device owns the accelerator command-stream surface: ordered
// asynchronous streams, capture of enqueued work into replayable graphs, and
// page-locked host memory. The real implementation drives the CUDA runtime;
// the host implementation simulates the same contract in pure Go.
package device

import (
	"fmt"
	"unsafe"
)

// Raw collaborator handles. Opaque to everything above this package.
type (
	StreamHandle = unsafe.Pointer
	GraphHandle  = unsafe.Pointer
	ExecHandle   = unsafe.Pointer
)

// API is the device collaborator contract.
type API interface {
	MallocHost(size int64) (unsafe.Pointer, error)
	FreeHost(p unsafe.Pointer) error

	StreamCreate() (StreamHandle, error)
	StreamDestroy(h StreamHandle) error
	StreamSynchronize(h StreamHandle) error
	StreamBeginCapture(h StreamHandle) error
	StreamEndCapture(h StreamHandle) (GraphHandle, error)

	GraphInstantiate(g GraphHandle) (ExecHandle, error)
	GraphDestroy(g GraphHandle) error
	GraphExecLaunch(e ExecHandle, h StreamHandle) error
	GraphExecDestroy(e ExecHandle) error
}

// Stream owns one ordered asynchronous command stream. Operations enqueued on
// it execute in FIFO order. Close drains the stream before destroying it; a
// failed drain or destroy leaves the process in an unknown state and aborts.
type Stream struct {
	api API
	h   StreamHandle
}

func NewStream(api API) (*Stream, error) {
	h, err := api.StreamCreate()
	if err != nil {
		return nil, err
	}
	return &Stream{api: api, h: h}, nil
}

// Handle exposes the raw stream handle for enqueue by the runtime collaborator.
func (s *Stream) Handle() StreamHandle { return s.h }

// Synchronize blocks until all work previously enqueued on the stream has
// completed. No timeout: a device hang blocks forever.
func (s *Stream) Synchronize() error {
	return s.api.StreamSynchronize(s.h)
}

// BeginCapture switches the stream into recording mode. Must be paired with
// EndCapture before the stream is used normally again.
func (s *Stream) BeginCapture() error {
	return s.api.StreamBeginCapture(s.h)
}

// EndCapture stops recording and returns the captured graph.
func (s *Stream) EndCapture() (*Graph, error) {
	g, err := s.api.StreamEndCapture(s.h)
	if err != nil {
		return nil, err
	}
	return &Graph{api: s.api, h: g}, nil
}

func (s *Stream) Close() {
	if s == nil || s.h == nil {
		return
	}
	if err := s.api.StreamSynchronize(s.h); err != nil {
		panic(fmt.Sprintf("device: stream drain on close: %v", err))
	}
	if err := s.api.StreamDestroy(s.h); err != nil {
		panic(fmt.Sprintf("device: stream destroy: %v", err))
	}
	s.h = nil
}

// Graph is an immutable snapshot of the commands captured on a stream. It is
// never mutated after construction.
type Graph struct {
	api API
	h   GraphHandle
}

func (g *Graph) Close() {
	if g == nil || g.h == nil {
		return
	}
	if err := g.api.GraphDestroy(g.h); err != nil {
		panic(fmt.Sprintf("device: graph destroy: %v", err))
	}
	g.h = nil
}

// GraphExec is the instantiated, relaunchable form of a captured graph.
// Replays reference the buffer addresses that were bound at capture time.
type GraphExec struct {
	api API
	h   ExecHandle
}

func Instantiate(g *Graph) (*GraphExec, error) {
	h, err := g.api.GraphInstantiate(g.h)
	if err != nil {
		return nil, err
	}
	return &GraphExec{api: g.api, h: h}, nil
}

// Launch enqueues a replay of the captured command sequence on the stream.
// Asynchronous; synchronize the stream to observe completion.
func (e *GraphExec) Launch(s *Stream) error {
	return e.api.GraphExecLaunch(e.h, s.h)
}

func (e *GraphExec) Close() {
	if e == nil || e.h == nil {
		return
	}
	if err := e.api.GraphExecDestroy(e.h); err != nil {
		panic(fmt.Sprintf("device: graph exec destroy: %v", err))
	}
	e.h = nil
}
