package fuzzer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-volley/internal/device"
	"github.com/23skdu/longbow-volley/internal/infer"
	"github.com/23skdu/longbow-volley/internal/logger"
)

func identityPlanBytes(t *testing.T) []byte {
	return simPlanBytes(t, []infer.PlanTensor{
		{Name: "in", Mode: infer.IOInput, DType: infer.UInt8, Dims: []int64{32}},
		{Name: "out", Mode: infer.IOOutput, DType: infer.UInt8, Dims: []int64{32}},
	})
}

func TestPipelineWarmUpAndCapture(t *testing.T) {
	host := device.NewHost()
	rt := infer.NewSimRuntime(host, nil)

	p, err := newPipeline("plan0", host, rt, identityPlanBytes(t), logger.Log)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.warmUp())
	require.NoError(t, p.capture())
	require.NotNil(t, p.exec)

	require.Error(t, p.enqueue(), "direct invocation after capture must fail")
}

func TestPipelineLaunchBeforeCapture(t *testing.T) {
	host := device.NewHost()
	rt := infer.NewSimRuntime(host, nil)

	p, err := newPipeline("plan0", host, rt, identityPlanBytes(t), logger.Log)
	require.NoError(t, err)
	defer p.Close()

	require.Error(t, p.launch())
}

func TestPipelineReplayMatchesDirectInvocation(t *testing.T) {
	host := device.NewHost()
	rt := infer.NewSimRuntime(host, nil)

	p, err := newPipeline("plan0", host, rt, identityPlanBytes(t), logger.Log)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.warmUp())
	require.NoError(t, p.capture())

	// Replay after randomizing must act on the same bound addresses: the
	// output ends up identical to the freshly randomized input every time.
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 5; i++ {
		p.bindings.Randomize(rng, true)
		require.NoError(t, p.launch())
		require.NoError(t, p.sync())
		require.Equal(t, p.bindings.Inputs[0].bytes(), p.bindings.Outputs[0].bytes())
	}
}

func TestPipelineBadPlanFailsConstruction(t *testing.T) {
	host := device.NewHost()
	rt := infer.NewSimRuntime(host, nil)

	_, err := newPipeline("plan0", host, rt, []byte("garbage"), logger.Log)
	require.Error(t, err)
	require.Equal(t, int64(0), host.PinnedBytes())
}

func TestPipelinesAreIsolated(t *testing.T) {
	host := device.NewHost()
	rt := infer.NewSimRuntime(host, nil)

	a, err := newPipeline("plan0", host, rt, identityPlanBytes(t), logger.Log)
	require.NoError(t, err)
	b, err := newPipeline("plan1", host, rt, identityPlanBytes(t), logger.Log)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.warmUp())
	require.NoError(t, b.warmUp())
	require.NoError(t, a.capture())
	require.NoError(t, b.capture())

	// Tearing one pipeline down leaves the other fully operational.
	a.Close()

	rng := rand.New(rand.NewSource(5))
	b.bindings.Randomize(rng, true)
	require.NoError(t, b.launch())
	require.NoError(t, b.sync())
	require.Equal(t, b.bindings.Inputs[0].bytes(), b.bindings.Outputs[0].bytes())
}
