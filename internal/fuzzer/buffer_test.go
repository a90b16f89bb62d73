package fuzzer

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-volley/internal/device"
)

func TestBufferAllocFree(t *testing.T) {
	host := device.NewHost()

	b, err := NewBuffer(host, 4096)
	require.NoError(t, err)
	require.NotNil(t, b.Data())
	require.Equal(t, int64(4096), b.Size())
	require.Equal(t, int64(4096), host.PinnedBytes())

	b.Close()
	require.Equal(t, int64(0), host.PinnedBytes())
	require.Nil(t, b.Data())
	require.Equal(t, int64(0), b.Size())

	// A closed buffer is null: closing again performs no device operation.
	b.Close()
	require.Equal(t, int64(0), host.PinnedBytes())

	var nilBuf *Buffer
	nilBuf.Close()
}

func TestBufferAllocFailure(t *testing.T) {
	host := device.NewHost()
	_, err := NewBuffer(host, -1)
	require.Error(t, err)
}

func TestBufferRandomizeFullCoverage(t *testing.T) {
	host := device.NewHost()

	// 21 bytes: two full generator words plus a 5-byte tail.
	b, err := NewBuffer(host, 21)
	require.NoError(t, err)
	defer b.Close()

	b.Randomize(rand.New(rand.NewSource(7)))

	want := make([]byte, 24)
	ref := rand.New(rand.NewSource(7))
	for i := 0; i < 24; i += 8 {
		binary.LittleEndian.PutUint64(want[i:], ref.Uint64())
	}
	require.Equal(t, want[:21], b.bytes(), "every byte including the tail must come from the generator")
}

func TestBufferRandomizeDeterministic(t *testing.T) {
	host := device.NewHost()

	a, err := NewBuffer(host, 256)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewBuffer(host, 256)
	require.NoError(t, err)
	defer b.Close()

	a.Randomize(rand.New(rand.NewSource(42)))
	b.Randomize(rand.New(rand.NewSource(42)))
	require.Equal(t, a.bytes(), b.bytes())

	b.Randomize(rand.New(rand.NewSource(43)))
	require.NotEqual(t, a.bytes(), b.bytes())
}

func TestBufferAddressStableAcrossRandomize(t *testing.T) {
	host := device.NewHost()

	b, err := NewBuffer(host, 128)
	require.NoError(t, err)
	defer b.Close()

	addr := b.Data()
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		b.Randomize(rng)
		require.Equal(t, addr, b.Data(), "captured graphs depend on stable addresses")
	}
}
