package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamLifecycle(t *testing.T) {
	host := NewHost()

	s, err := NewStream(host)
	require.NoError(t, err)
	require.NotNil(t, s.Handle())

	require.NoError(t, s.Synchronize())
	s.Close()

	// Close on a closed or nil stream is a no-op, never a second destroy.
	s.Close()
	var nilStream *Stream
	nilStream.Close()
}

func TestCaptureReplayThroughWrappers(t *testing.T) {
	host := NewHost()

	s, err := NewStream(host)
	require.NoError(t, err)
	defer s.Close()

	ran := 0
	require.NoError(t, s.BeginCapture())
	require.NoError(t, host.Submit(s.Handle(), func() { ran++ }))

	g, err := s.EndCapture()
	require.NoError(t, err)
	defer g.Close()

	e, err := Instantiate(g)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, s.Synchronize())
	require.Equal(t, 0, ran)

	for i := 1; i <= 3; i++ {
		require.NoError(t, e.Launch(s))
		require.NoError(t, s.Synchronize())
		require.Equal(t, i, ran)
	}
}

func TestGraphCloseIdempotent(t *testing.T) {
	host := NewHost()

	s, err := NewStream(host)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.BeginCapture())
	g, err := s.EndCapture()
	require.NoError(t, err)

	e, err := Instantiate(g)
	require.NoError(t, err)

	e.Close()
	e.Close()
	g.Close()
	g.Close()

	var nilGraph *Graph
	nilGraph.Close()
	var nilExec *GraphExec
	nilExec.Close()
}
