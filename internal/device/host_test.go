package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHostMallocFree(t *testing.T) {
	host := NewHost()

	p, err := host.MallocHost(1024)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, int64(1024), host.PinnedBytes())

	require.NoError(t, host.FreeHost(p))
	require.Equal(t, int64(0), host.PinnedBytes())

	require.Error(t, host.FreeHost(p), "double free must be reported")
}

func TestHostMallocInvalidSize(t *testing.T) {
	host := NewHost()
	_, err := host.MallocHost(0)
	require.Error(t, err)
	_, err = host.MallocHost(-8)
	require.Error(t, err)
}

func TestHostStreamFIFO(t *testing.T) {
	host := NewHost()
	h, err := host.StreamCreate()
	require.NoError(t, err)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, host.Submit(h, func() { order = append(order, i) }))
	}
	require.NoError(t, host.StreamSynchronize(h))
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
	require.NoError(t, host.StreamDestroy(h))
}

func TestHostCaptureRecordsInsteadOfExecuting(t *testing.T) {
	host := NewHost()
	h, err := host.StreamCreate()
	require.NoError(t, err)

	ran := 0
	require.NoError(t, host.StreamBeginCapture(h))
	require.NoError(t, host.Submit(h, func() { ran++ }))
	require.Equal(t, 0, ran, "captured work must not execute")

	g, err := host.StreamEndCapture(h)
	require.NoError(t, err)
	require.Equal(t, 0, ran)

	e, err := host.GraphInstantiate(g)
	require.NoError(t, err)

	require.NoError(t, host.GraphExecLaunch(e, h))
	require.Equal(t, 1, ran, "replay must execute the recorded work")
	require.NoError(t, host.GraphExecLaunch(e, h))
	require.Equal(t, 2, ran, "replay must be repeatable")

	require.NoError(t, host.GraphExecDestroy(e))
	require.NoError(t, host.GraphDestroy(g))
	require.NoError(t, host.StreamDestroy(h))
}

func TestHostCapturePairing(t *testing.T) {
	host := NewHost()
	h, err := host.StreamCreate()
	require.NoError(t, err)

	_, err = host.StreamEndCapture(h)
	require.Error(t, err, "end capture without begin must fail")

	require.NoError(t, host.StreamBeginCapture(h))
	require.Error(t, host.StreamBeginCapture(h), "nested capture must fail")
	require.Error(t, host.StreamSynchronize(h), "synchronize during capture must fail")

	_, err = host.StreamEndCapture(h)
	require.NoError(t, err)
	require.NoError(t, host.StreamSynchronize(h))
}

func TestHostStreamUseAfterDestroy(t *testing.T) {
	host := NewHost()
	h, err := host.StreamCreate()
	require.NoError(t, err)
	require.NoError(t, host.StreamDestroy(h))

	require.Error(t, host.StreamSynchronize(h))
	require.Error(t, host.StreamBeginCapture(h))
	require.Error(t, host.Submit(h, func() {}))
	require.Error(t, host.StreamDestroy(h))
}

func TestHostStreamsAreIndependent(t *testing.T) {
	host := NewHost()
	a, err := host.StreamCreate()
	require.NoError(t, err)
	b, err := host.StreamCreate()
	require.NoError(t, err)

	require.NoError(t, host.StreamDestroy(a))

	// The surviving stream still works after the other is torn down.
	ran := false
	require.NoError(t, host.Submit(b, func() { ran = true }))
	require.NoError(t, host.StreamSynchronize(b))
	require.True(t, ran)
	require.NoError(t, host.StreamDestroy(b))
}
